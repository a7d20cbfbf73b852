package main

import (
	"context"
	"flag"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/lifecycle"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/db"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	batchSize        = 200
	perLeadTimeout   = 20 * time.Second
	retryAttempts    = 3
	retryBaseBackoff = 500 * time.Millisecond
)

// lead-rescore recomputes the derived fields of every lead, or of one
// dealer's leads, after a scoring config change.
func main() {
	dealerFlag := flag.String("dealer", "", "only rescore leads of this dealer id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	var dealerID *uuid.UUID
	if *dealerFlag != "" {
		id, err := uuid.Parse(*dealerFlag)
		if err != nil {
			panic("invalid -dealer: " + err.Error())
		}
		dealerID = &id
	}
	log.Info("starting lead rescore", "dealerId", *dealerFlag)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	scoringCfg, err := scoring.LoadConfig(cfg.GetScoringConfigPath())
	if err != nil {
		log.Error("failed to load scoring config", "error", err)
		panic("failed to load scoring config: " + err.Error())
	}

	repo := repository.New(pool)
	// Nothing listens here; dashboard caches expire on their own TTL.
	svc := lifecycle.New(repo, scoring.NewCalculator(scoringCfg), events.NewInMemoryBus(log), log)

	var processed, failed int
	cursor := uuid.Nil

	for {
		ids, err := repo.ListLeadIDs(ctx, dealerID, cursor, batchSize)
		if err != nil {
			log.Error("failed to list leads", "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			processed++
			cursor = id
			if err := rescore(ctx, svc, id); err != nil {
				failed++
				log.Error("failed to rescore lead", "leadId", id, "error", err)
			}
		}

		log.Info("rescore batch completed", "processed", processed, "failed", failed)
	}

	log.Info("lead rescore completed", "processed", processed, "failed", failed, "scoreVersion", scoringCfg.Version)
}

func rescore(parentCtx context.Context, svc *lifecycle.Service, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(parentCtx, perLeadTimeout)
	defer cancel()
	return svc.RecomputeWithRetry(ctx, id, retryAttempts, retryBaseBackoff)
}
