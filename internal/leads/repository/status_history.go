package repository

import (
	"context"

	"github.com/google/uuid"
)

func (r *Repository) ListStatusHistory(ctx context.Context, leadID uuid.UUID) ([]StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, old_status, new_status, notes, changed_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY changed_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]StatusChange, 0)
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.ID, &c.LeadID, &c.OldStatus, &c.NewStatus, &c.Notes, &c.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	return history, rows.Err()
}
