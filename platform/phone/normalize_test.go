package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name   string
		region string
		input  string
		want   string
	}{
		{"us national", "US", "(201) 555-0123", "+12015550123"},
		{"already e164", "US", "+12015550123", "+12015550123"},
		{"dutch mobile", "NL", "06 12345678", "+31612345678"},
		{"garbage kept", "US", "  not a number ", "not a number"},
		{"empty", "US", "   ", ""},
		{"default region", "", "201-555-0123", "+12015550123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewNormalizer(tc.region).NormalizeE164(tc.input)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
