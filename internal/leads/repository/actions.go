package repository

import (
	"context"
	"errors"

	"lead_engine_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AppendAction inserts a log entry. Returns ErrNotFound when the lead does not exist.
func (r *Repository) AppendAction(ctx context.Context, params AppendActionParams) (Action, error) {
	var action Action
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_actions (lead_id, action_type, occurred_at, score_impact, description)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM leads WHERE id = $1)
		RETURNING id, lead_id, action_type, occurred_at, score_impact, description, created_at
	`, params.LeadID, string(params.ActionType), params.OccurredAt, params.ScoreImpact, params.Description).Scan(
		&action.ID, &action.LeadID, &action.ActionType, &action.OccurredAt,
		&action.ScoreImpact, &action.Description, &action.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Action{}, ErrNotFound
	}
	if err != nil {
		return Action{}, err
	}
	return action, nil
}

func (r *Repository) CountActionsByType(ctx context.Context, leadID uuid.UUID, actionType domain.ActionType) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lead_actions WHERE lead_id = $1 AND action_type = $2
	`, leadID, string(actionType)).Scan(&count)
	return count, err
}

// ListActions returns the most recent entries, newest first.
func (r *Repository) ListActions(ctx context.Context, leadID uuid.UUID, limit int) ([]Action, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, action_type, occurred_at, score_impact, description, created_at
		FROM lead_actions
		WHERE lead_id = $1
		ORDER BY occurred_at DESC, created_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]Action, 0)
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.LeadID, &a.ActionType, &a.OccurredAt, &a.ScoreImpact, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func tallyActions(ctx context.Context, q querier, leadID uuid.UUID) ([]ActionTally, error) {
	rows, err := q.Query(ctx, `
		SELECT action_type, COUNT(*), MIN(occurred_at), MAX(occurred_at)
		FROM lead_actions
		WHERE lead_id = $1
		GROUP BY action_type
		ORDER BY action_type
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make([]ActionTally, 0)
	for rows.Next() {
		var t ActionTally
		if err := rows.Scan(&t.ActionType, &t.Count, &t.FirstAt, &t.LastAt); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}
