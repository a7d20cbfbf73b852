package domain

import "strings"

// Temperature is the three-tier classification of a lead's score.
type Temperature string

const (
	TemperatureHot  Temperature = "Hot"
	TemperatureWarm Temperature = "Warm"
	TemperatureCold Temperature = "Cold"
)

// Tier thresholds are inclusive lower bounds.
const (
	HotThreshold  = 70
	WarmThreshold = 40
)

// ParseTemperature matches s case-insensitively against the known temperatures.
func ParseTemperature(s string) (Temperature, bool) {
	for _, t := range []Temperature{TemperatureHot, TemperatureWarm, TemperatureCold} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// IsValid reports whether t is a known temperature.
func (t Temperature) IsValid() bool {
	switch t {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
		return true
	}
	return false
}
