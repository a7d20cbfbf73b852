package scoring

import (
	"math"

	"lead_engine_backend/internal/leads/domain"
)

const (
	curveScale        = 90.0
	maxOpenProbability = 99.0
)

var temperatureBonus = map[domain.Temperature]float64{
	domain.TemperatureHot:  5,
	domain.TemperatureWarm: 2,
}

var statusBonus = map[domain.LeadStatus]float64{
	domain.StatusContacted:   1,
	domain.StatusQualified:   3,
	domain.StatusNegotiating: 8,
}

// Estimate returns a 0-100 prioritization probability. The curve is quadratic
// in score so the top of the range carries more weight. Closed statuses are
// absolute: Converted is 100 and Lost is 0.
func Estimate(score int, temp domain.Temperature, status domain.LeadStatus) float64 {
	switch status {
	case domain.StatusConverted:
		return 100
	case domain.StatusLost:
		return 0
	}

	s := float64(clamp(score, 0, MaxScore)) / MaxScore
	p := curveScale*s*s + temperatureBonus[temp] + statusBonus[status]
	p = math.Min(p, maxOpenProbability)
	return math.Round(p*10) / 10
}
