// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// Normalizer formats buyer phone numbers relative to a default region.
type Normalizer struct {
	region string
}

// NewNormalizer creates a normalizer for region (ISO 3166 alpha-2). Empty falls back to US.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}
	return &Normalizer{region: region}
}

// Region returns the default region used for numbers without a country prefix.
func (n *Normalizer) Region() string {
	return n.region
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func (n *Normalizer) NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeE164 formats input using the default region.
func NormalizeE164(input string) string {
	return NewNormalizer(defaultRegion).NormalizeE164(input)
}
