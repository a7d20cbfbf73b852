package scoring

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"lead_engine_backend/internal/leads/domain"

	"gopkg.in/yaml.v3"
)

// Fixed sub-score budgets. These are part of the data contract and are not tunable.
const (
	MaxEngagement = 40
	MaxRecency    = 30
	MaxIntent     = 30
	MaxScore      = 100
)

// DefaultVersion identifies the built-in rule set on persisted leads.
const DefaultVersion = "rules-v1"

// Config holds the tunable constants of the rule-based scorer.
type Config struct {
	Version    string           `yaml:"version"`
	Engagement EngagementConfig `yaml:"engagement"`
	Recency    RecencyConfig    `yaml:"recency"`
	Intent     IntentConfig     `yaml:"intent"`
}

type EngagementConfig struct {
	// Weights is the per-occurrence contribution of each action type.
	Weights map[domain.ActionType]int `yaml:"weights"`
	// FullWeightOccurrences is how many occurrences of a type count at full
	// weight before positive weights are halved.
	FullWeightOccurrences int `yaml:"fullWeightOccurrences"`
}

type RecencyConfig struct {
	Bands []RecencyBand `yaml:"bands"`
}

// RecencyBand awards Points when the last interaction happened at most Within ago.
type RecencyBand struct {
	Within time.Duration `yaml:"within"`
	Points int           `yaml:"points"`
}

type IntentConfig struct {
	TestDrive int `yaml:"testDrive"`
	Financing int `yaml:"financing"`
	Contact   int `yaml:"contact"`
}

// DefaultConfig returns the built-in scoring constants.
func DefaultConfig() Config {
	return Config{
		Version: DefaultVersion,
		Engagement: EngagementConfig{
			Weights: map[domain.ActionType]int{
				domain.ActionView:                 2,
				domain.ActionFavorite:             5,
				domain.ActionShare:                4,
				domain.ActionComparison:           4,
				domain.ActionContact:              8,
				domain.ActionTestDriveScheduled:   10,
				domain.ActionFinancingRequested:   10,
				domain.ActionPriceAlertSubscribed: 3,
				domain.ActionUnfavorite:           -5,
				domain.ActionNotInterested:        -10,
			},
			FullWeightOccurrences: 4,
		},
		Recency: RecencyConfig{
			Bands: []RecencyBand{
				{Within: 24 * time.Hour, Points: 30},
				{Within: 72 * time.Hour, Points: 20},
				{Within: 7 * 24 * time.Hour, Points: 10},
				{Within: 30 * 24 * time.Hour, Points: 5},
			},
		},
		Intent: IntentConfig{
			TestDrive: 15,
			Financing: 10,
			Contact:   5,
		},
	}
}

// LoadConfig reads a YAML file and overlays it on DefaultConfig. Keys absent
// from the file keep their default; a bands list replaces the default list.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scoring config: %w", err)
	}
	return ParseConfig(raw)
}

// ParseConfig decodes YAML bytes over DefaultConfig and validates the result.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	cfg.Engagement.Weights = maps.Clone(cfg.Engagement.Weights)

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration keeps every sub-score inside its
// budget and recency monotonic in elapsed time.
func (c Config) Validate() error {
	var errs []error

	if c.Version == "" {
		errs = append(errs, errors.New("version must not be empty"))
	}

	for actionType, weight := range c.Engagement.Weights {
		if !actionType.IsValid() {
			errs = append(errs, fmt.Errorf("unknown action type %q", actionType))
		}
		if weight < -MaxEngagement || weight > MaxEngagement {
			errs = append(errs, fmt.Errorf("weight for %s must be within ±%d", actionType, MaxEngagement))
		}
	}
	if c.Engagement.FullWeightOccurrences < 1 {
		errs = append(errs, errors.New("fullWeightOccurrences must be at least 1"))
	}

	for i, band := range c.Recency.Bands {
		if band.Within <= 0 {
			errs = append(errs, fmt.Errorf("recency band %d: within must be positive", i))
		}
		if band.Points < 0 || band.Points > MaxRecency {
			errs = append(errs, fmt.Errorf("recency band %d: points must be within 0..%d", i, MaxRecency))
		}
		if i > 0 {
			prev := c.Recency.Bands[i-1]
			if band.Within <= prev.Within {
				errs = append(errs, fmt.Errorf("recency band %d: within must be strictly increasing", i))
			}
			if band.Points > prev.Points {
				errs = append(errs, fmt.Errorf("recency band %d: points must not increase with elapsed time", i))
			}
		}
	}

	intents := []struct {
		name  string
		value int
	}{
		{"testDrive", c.Intent.TestDrive},
		{"financing", c.Intent.Financing},
		{"contact", c.Intent.Contact},
	}
	for _, in := range intents {
		if in.value < 0 || in.value > MaxIntent {
			errs = append(errs, fmt.Errorf("intent %s must be within 0..%d", in.name, MaxIntent))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid scoring config: %w", errors.Join(errs...))
	}
	return nil
}

// weight returns the configured weight for t, 0 when unset.
func (c Config) weight(t domain.ActionType) int {
	return c.Engagement.Weights[t]
}
