package scoring

import "lead_engine_backend/internal/leads/domain"

// Classify maps a total score to its tier. Lower bounds are inclusive.
func Classify(score int) domain.Temperature {
	switch {
	case score >= domain.HotThreshold:
		return domain.TemperatureHot
	case score >= domain.WarmThreshold:
		return domain.TemperatureWarm
	default:
		return domain.TemperatureCold
	}
}
