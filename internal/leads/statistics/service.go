// Package statistics aggregates a dealer's leads into dashboard counters.
// Counters are read from the stored lead fields so they can never drift from
// what the lead endpoints show.
package statistics

import (
	"context"
	"errors"
	"math"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/platform/cache"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const cacheName = "dealer_stats"

// Cache is the read-through store for summaries. *cache.Client satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Summary is the dealer rollup consumed by dashboards.
type Summary struct {
	TotalLeads     int            `json:"totalLeads"`
	HotLeads       int            `json:"hotLeads"`
	WarmLeads      int            `json:"warmLeads"`
	ColdLeads      int            `json:"coldLeads"`
	ConvertedLeads int            `json:"convertedLeads"`
	LostLeads      int            `json:"lostLeads"`
	AverageScore   float64        `json:"averageScore"`
	ConversionRate float64        `json:"conversionRate"`
	StatusCounts   map[string]int `json:"statusCounts"`
}

type Service struct {
	repo     repository.StatisticsReader
	cache    Cache
	cacheTTL time.Duration
	group    singleflight.Group
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func New(repo repository.StatisticsReader, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetCache enables caching of summaries for ttl. A nil cache disables it.
func (s *Service) SetCache(c Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func cacheKey(dealerID uuid.UUID) string {
	return "leads:stats:" + dealerID.String()
}

// Summarize returns the dealer's counters. A dealer without leads yields an
// all-zero summary with a conversion rate of 0.
func (s *Service) Summarize(ctx context.Context, dealerID uuid.UUID) (Summary, error) {
	key := cacheKey(dealerID)

	if s.cache != nil {
		var cached Summary
		err := s.cache.GetJSON(ctx, key, &cached)
		switch {
		case err == nil:
			s.metrics.CacheLookup(cacheName, "hit")
			return cached, nil
		case errors.Is(err, cache.ErrMiss):
			s.metrics.CacheLookup(cacheName, "miss")
		default:
			s.metrics.CacheLookup(cacheName, "error")
			s.log.WithContext(ctx).Warn("stats cache read failed", "dealerId", dealerID, "error", err)
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		raw, err := s.repo.SummarizeDealer(ctx, dealerID)
		if err != nil {
			return Summary{}, err
		}
		summary := fromDealerSummary(raw)

		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, key, summary, s.cacheTTL); err != nil {
				s.log.WithContext(ctx).Warn("stats cache write failed", "dealerId", dealerID, "error", err)
			}
		}
		return summary, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func fromDealerSummary(raw repository.DealerSummary) Summary {
	summary := Summary{
		TotalLeads:     raw.TotalLeads,
		HotLeads:       raw.HotLeads,
		WarmLeads:      raw.WarmLeads,
		ColdLeads:      raw.ColdLeads,
		ConvertedLeads: raw.ConvertedLeads,
		LostLeads:      raw.LostLeads,
		AverageScore:   round(raw.AverageScore, 1),
		StatusCounts:   make(map[string]int, len(domain.AllStatuses)),
	}
	if raw.TotalLeads > 0 {
		summary.ConversionRate = round(float64(raw.ConvertedLeads)/float64(raw.TotalLeads), 4)
	}
	for _, status := range domain.AllStatuses {
		summary.StatusCounts[string(status)] = raw.StatusCounts[status]
	}
	return summary
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Invalidate drops the cached summary for a dealer.
func (s *Service) Invalidate(ctx context.Context, dealerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(dealerID)); err != nil {
		s.log.WithContext(ctx).Warn("stats cache invalidation failed", "dealerId", dealerID, "error", err)
	}
}

// InvalidationHandler drops a dealer's cached summary whenever one of its
// leads is created, rescored or changes status.
func (s *Service) InvalidationHandler() events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		switch e := event.(type) {
		case events.LeadCreated:
			s.Invalidate(ctx, e.DealerID)
		case events.LeadScoreUpdated:
			s.Invalidate(ctx, e.DealerID)
		case events.LeadStatusChanged:
			s.Invalidate(ctx, e.DealerID)
		}
		return nil
	})
}
