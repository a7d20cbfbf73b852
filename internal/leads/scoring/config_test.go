package scoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lead_engine_backend/internal/leads/domain"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != DefaultVersion {
		t.Errorf("expected default version, got %q", cfg.Version)
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := `
version: dealer-tuned-2
engagement:
  weights:
    View: 3
recency:
  bands:
    - within: 12h
      points: 30
    - within: 48h
      points: 15
intent:
  financing: 12
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != "dealer-tuned-2" {
		t.Errorf("unexpected version %q", cfg.Version)
	}
	if cfg.Engagement.Weights[domain.ActionView] != 3 {
		t.Errorf("expected overridden view weight")
	}
	if cfg.Engagement.Weights[domain.ActionContact] != 8 {
		t.Errorf("expected default contact weight to survive overlay")
	}
	if len(cfg.Recency.Bands) != 2 || cfg.Recency.Bands[0].Within != 12*time.Hour {
		t.Errorf("unexpected bands: %+v", cfg.Recency.Bands)
	}
	if cfg.Intent.Financing != 12 || cfg.Intent.TestDrive != 15 {
		t.Errorf("unexpected intent: %+v", cfg.Intent)
	}
	if DefaultConfig().Engagement.Weights[domain.ActionView] != 2 {
		t.Error("overlay leaked into defaults")
	}
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown action", "engagement:\n  weights:\n    Teleport: 3\n", "unknown action type"},
		{"weight too large", "engagement:\n  weights:\n    View: 50\n", "weight for View"},
		{"increasing recency", "recency:\n  bands:\n    - {within: 24h, points: 10}\n    - {within: 48h, points: 20}\n", "must not increase"},
		{"unordered bands", "recency:\n  bands:\n    - {within: 48h, points: 20}\n    - {within: 24h, points: 10}\n", "strictly increasing"},
		{"intent above budget", "intent:\n  testDrive: 31\n", "intent testDrive"},
		{"unknown field", "bonus: 3\n", "decode scoring config"},
		{"zero occurrences", "engagement:\n  fullWeightOccurrences: 0\n", "fullWeightOccurrences"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
