package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres implementation of LeadsRepository.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const leadColumns = `
	id, dealer_id, vehicle_id, buyer_id, user_full_name, user_email, user_phone,
	score, engagement_score, recency_score, intent_score, temperature, conversion_probability,
	status, dealer_notes, view_count, contact_count, favorite_count, share_count, comparison_count,
	has_scheduled_test_drive, has_requested_financing, first_interaction_at, last_interaction_at,
	last_contacted_at, converted_at, score_version, scored_at, created_at, updated_at`

func scanLead(row pgx.Row, extra ...any) (Lead, error) {
	var lead Lead
	dest := []any{
		&lead.ID, &lead.DealerID, &lead.VehicleID, &lead.BuyerID, &lead.UserFullName, &lead.UserEmail, &lead.UserPhone,
		&lead.Score, &lead.EngagementScore, &lead.RecencyScore, &lead.IntentScore, &lead.Temperature, &lead.ConversionProbability,
		&lead.Status, &lead.DealerNotes, &lead.ViewCount, &lead.ContactCount, &lead.FavoriteCount, &lead.ShareCount, &lead.ComparisonCount,
		&lead.HasScheduledTestDrive, &lead.HasRequestedFinancing, &lead.FirstInteractionAt, &lead.LastInteractionAt,
		&lead.LastContactedAt, &lead.ConvertedAt, &lead.ScoreVersion, &lead.ScoredAt, &lead.CreatedAt, &lead.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

// CreateOrGet inserts a lead for the relationship or returns the existing one.
// Buyer identity fields on an existing lead are only filled in when still empty.
func (r *Repository) CreateOrGet(ctx context.Context, params CreateLeadParams) (Lead, bool, error) {
	var inserted bool
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (dealer_id, vehicle_id, buyer_id, user_full_name, user_email, user_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dealer_id, vehicle_id, buyer_id) DO UPDATE SET
			user_full_name = CASE WHEN leads.user_full_name = '' THEN EXCLUDED.user_full_name ELSE leads.user_full_name END,
			user_email = CASE WHEN leads.user_email = '' THEN EXCLUDED.user_email ELSE leads.user_email END,
			user_phone = CASE WHEN leads.user_phone = '' THEN EXCLUDED.user_phone ELSE leads.user_phone END
		RETURNING `+leadColumns+`, (xmax = 0) AS inserted
	`,
		params.DealerID, params.VehicleID, params.BuyerID,
		params.UserFullName, params.UserEmail, params.UserPhone,
	), &inserted)
	if err != nil {
		return Lead{}, false, err
	}
	return lead, inserted, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY score DESC, last_interaction_at DESC NULLS LAST, id ASC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	// Dealer scoping is always the first filter
	whereClauses := []string{"dealer_id = $1"}
	args := []interface{}{params.DealerID}
	argIdx := 2

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Temperature != nil {
		addEquals("temperature", string(*params.Temperature))
	}
	if params.Status != nil {
		addEquals("status", string(*params.Status))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(user_full_name ILIKE $%d OR user_email ILIKE $%d OR user_phone ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, "%"+escapeLike(search)+"%")
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
