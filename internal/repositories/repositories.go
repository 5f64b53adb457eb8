package repositories

import (
	"context"
	"errors"
	"strings"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of *pgxpool.Pool the SQL repositories use.
// pgxmock.PgxPoolIface satisfies it as well.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository is the credential store
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// LeadRepository persists leads. Every read and write is scoped to the owner.
type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Find(ctx context.Context, query *models.LeadQuery) ([]*models.Lead, error)
	Count(ctx context.Context, query *models.LeadQuery) (int64, error)
}

// Pinger is implemented by stores that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles the repositories of one backend
type Store struct {
	Users  UserRepository
	Leads  LeadRepository
	Pinger Pinger
	Close  func()
}

const (
	pgUniqueViolation        = "23505"
	pgInvalidTextRepresented = "22P02"
)

// mapPgError translates driver errors into the common error taxonomy
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &common.DuplicateKeyError{Field: fieldFromConstraint(pgErr.ConstraintName)}
		case pgInvalidTextRepresented:
			return common.ErrInvalidID
		}
	}
	return err
}

// fieldFromConstraint turns "leads_email_key" into "email"
func fieldFromConstraint(name string) string {
	for _, table := range []string{"leads_", "users_"} {
		name = strings.TrimPrefix(name, table)
	}
	for _, suffix := range []string{"_key", "_idx", "_unique"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}
