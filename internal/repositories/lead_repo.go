package repositories

import (
	"context"
	"fmt"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, first_name, last_name, email, phone, company, city, state, source, status, score, lead_value, last_activity_at, is_qualified, created_by, created_at, updated_at`

type leadRepo struct {
	db Database
}

func NewLeadRepo(db Database) LeadRepository {
	return &leadRepo{db: db}
}

func (r *leadRepo) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, first_name, last_name, email, phone, company, city, state, source, status, score, lead_value, last_activity_at, is_qualified, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		lead.ID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.Company, lead.City, lead.State,
		lead.Source, lead.Status, lead.Score, lead.LeadValue, lead.LastActivityAt, lead.IsQualified, lead.CreatedBy,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *leadRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE created_by = $1 AND id = $2`
	lead, err := scanLead(r.db.QueryRow(ctx, query, ownerID, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return lead, nil
}

func (r *leadRepo) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads
		SET first_name = $1, last_name = $2, email = $3, phone = $4, company = $5, city = $6, state = $7, source = $8, status = $9, score = $10, lead_value = $11, last_activity_at = $12, is_qualified = $13, updated_at = NOW()
		WHERE created_by = $14 AND id = $15
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.Company, lead.City, lead.State,
		lead.Source, lead.Status, lead.Score, lead.LeadValue, lead.LastActivityAt, lead.IsQualified,
		lead.CreatedBy, lead.ID,
	).Scan(&lead.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *leadRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	query := `DELETE FROM leads WHERE created_by = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, ownerID, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Find returns one page of matching leads, newest first
func (r *leadRepo) Find(ctx context.Context, q *models.LeadQuery) ([]*models.Lead, error) {
	where, args := compileLeadWhere(q)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Skip)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	leads := make([]*models.Lead, 0, q.Limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}
	return leads, nil
}

// Count returns the number of matching leads ignoring pagination
func (r *leadRepo) Count(ctx context.Context, q *models.LeadQuery) (int64, error) {
	where, args := compileLeadWhere(q)
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return 0, mapPgError(err)
	}
	return total, nil
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	lead := &models.Lead{}
	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.Company, &lead.City, &lead.State,
		&lead.Source, &lead.Status, &lead.Score, &lead.LeadValue, &lead.LastActivityAt, &lead.IsQualified,
		&lead.CreatedBy, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lead, nil
}
