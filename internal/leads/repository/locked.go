package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// withLeadLock runs fn inside a transaction holding a row lock on the lead.
func (r *Repository) withLeadLock(ctx context.Context, id uuid.UUID, fn func(tx pgx.Tx, lead Lead) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead, err := scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return err
	}

	if err := fn(tx, lead); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecomputeLocked derives fresh engine-owned fields from the full action log
// while holding the lead's row lock, so concurrent recomputes apply serially.
func (r *Repository) RecomputeLocked(ctx context.Context, id uuid.UUID, derive DeriveFunc) (RecomputeResult, error) {
	var result RecomputeResult
	err := r.withLeadLock(ctx, id, func(tx pgx.Tx, lead Lead) error {
		tallies, err := tallyActions(ctx, tx, id)
		if err != nil {
			return err
		}

		derived, err := derive(lead, tallies)
		if err != nil {
			return err
		}

		after, err := scanLead(tx.QueryRow(ctx, `
			UPDATE leads SET
				score = $2,
				engagement_score = $3,
				recency_score = $4,
				intent_score = $5,
				temperature = $6,
				conversion_probability = $7,
				view_count = $8,
				contact_count = $9,
				favorite_count = $10,
				share_count = $11,
				comparison_count = $12,
				has_scheduled_test_drive = $13,
				has_requested_financing = $14,
				first_interaction_at = $15,
				last_interaction_at = $16,
				score_version = $17,
				scored_at = $18,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			id,
			derived.Score, derived.EngagementScore, derived.RecencyScore, derived.IntentScore,
			string(derived.Temperature), derived.ConversionProbability,
			derived.ViewCount, derived.ContactCount, derived.FavoriteCount, derived.ShareCount, derived.ComparisonCount,
			derived.HasScheduledTestDrive, derived.HasRequestedFinancing,
			derived.FirstInteractionAt, derived.LastInteractionAt,
			derived.ScoreVersion, derived.ScoredAt,
		))
		if err != nil {
			return err
		}

		result = RecomputeResult{Before: lead, After: after}
		return nil
	})
	return result, err
}

// UpdateStatusLocked applies a validated status request and, for effective
// transitions, appends a history row in the same transaction.
func (r *Repository) UpdateStatusLocked(ctx context.Context, id uuid.UUID, apply StatusFunc) (StatusResult, error) {
	var result StatusResult
	err := r.withLeadLock(ctx, id, func(tx pgx.Tx, lead Lead) error {
		update, err := apply(lead)
		if err != nil {
			return err
		}

		after, err := scanLead(tx.QueryRow(ctx, `
			UPDATE leads SET
				status = $2,
				dealer_notes = COALESCE($3, dealer_notes),
				last_contacted_at = COALESCE($4, last_contacted_at),
				converted_at = COALESCE(converted_at, $5),
				conversion_probability = $6,
				updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			id, string(update.Status), update.DealerNotes,
			update.LastContactedAt, update.ConvertedAt, update.ConversionProbability,
		))
		if err != nil {
			return err
		}

		result = StatusResult{Before: lead, After: after}
		if !update.Changed {
			return nil
		}

		change := StatusChange{
			LeadID:    id,
			OldStatus: lead.Status,
			NewStatus: update.Status,
			Notes:     update.DealerNotes,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO lead_status_history (lead_id, old_status, new_status, notes, changed_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, changed_at
		`, id, string(lead.Status), string(update.Status), update.DealerNotes, update.ChangedAt).Scan(&change.ID, &change.ChangedAt)
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		result.Change = &change
		return nil
	})
	return result, err
}
