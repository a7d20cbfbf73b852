package repository

import (
	"context"

	"lead_engine_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SummarizeDealer computes all counters from one statement so they describe
// the same snapshot.
func (r *Repository) SummarizeDealer(ctx context.Context, dealerID uuid.UUID) (DealerSummary, error) {
	var (
		s                                                      DealerSummary
		newCount, contacted, qualified, nurturing, negotiating int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE temperature = 'Hot'),
			COUNT(*) FILTER (WHERE temperature = 'Warm'),
			COUNT(*) FILTER (WHERE temperature = 'Cold'),
			COUNT(*) FILTER (WHERE status = 'New'),
			COUNT(*) FILTER (WHERE status = 'Contacted'),
			COUNT(*) FILTER (WHERE status = 'Qualified'),
			COUNT(*) FILTER (WHERE status = 'Nurturing'),
			COUNT(*) FILTER (WHERE status = 'Negotiating'),
			COUNT(*) FILTER (WHERE status = 'Converted'),
			COUNT(*) FILTER (WHERE status = 'Lost'),
			COALESCE(AVG(score), 0)::float8
		FROM leads
		WHERE dealer_id = $1
	`, dealerID).Scan(
		&s.TotalLeads, &s.HotLeads, &s.WarmLeads, &s.ColdLeads,
		&newCount, &contacted, &qualified, &nurturing, &negotiating,
		&s.ConvertedLeads, &s.LostLeads, &s.AverageScore,
	)
	if err != nil {
		return DealerSummary{}, err
	}

	s.StatusCounts = map[domain.LeadStatus]int{
		domain.StatusNew:         newCount,
		domain.StatusContacted:   contacted,
		domain.StatusQualified:   qualified,
		domain.StatusNurturing:   nurturing,
		domain.StatusNegotiating: negotiating,
		domain.StatusConverted:   s.ConvertedLeads,
		domain.StatusLost:        s.LostLeads,
	}
	return s, nil
}
