package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListDecayCandidates returns leads with a non-zero recency band whose last
// interaction is older than staleBefore, ordered by id for keyset paging.
func (r *Repository) ListDecayCandidates(ctx context.Context, staleBefore time.Time, after uuid.UUID, limit int) ([]DecayCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, last_interaction_at, recency_score
		FROM leads
		WHERE recency_score > 0
		  AND last_interaction_at IS NOT NULL
		  AND last_interaction_at < $1
		  AND id > $2
		ORDER BY id
		LIMIT $3
	`, staleBefore, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]DecayCandidate, 0)
	for rows.Next() {
		var c DecayCandidate
		if err := rows.Scan(&c.ID, &c.LastInteractionAt, &c.RecencyScore); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ListLeadIDs pages through lead ids, optionally scoped to one dealer.
func (r *Repository) ListLeadIDs(ctx context.Context, dealerID *uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM leads
		WHERE ($1::uuid IS NULL OR dealer_id = $1)
		  AND id > $2
		ORDER BY id
		LIMIT $3
	`, dealerID, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
