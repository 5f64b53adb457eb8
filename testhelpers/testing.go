package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"leadbook/internal/models"
	"leadbook/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL, migrates and empties the
// tables. The test is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE leads, users`); err != nil {
		pool.Close()
		t.Fatalf("Failed to clean test database: %v", err)
	}

	db := &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
	t.Cleanup(func() { _ = db.Cleanup() })
	return db
}

// NewTestUser returns an unsaved user with a unique email
func NewTestUser() *models.User {
	id := uuid.New()
	return &models.User{
		ID:           id,
		Name:         "Test User",
		Email:        fmt.Sprintf("user-%s@example.com", id.String()[:8]),
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuu7m8m3oZ9h8Yb9w2zH1rZ7t1m2Y3Q4Ku",
	}
}

// NewTestLead returns a valid unsaved lead owned by ownerID
func NewTestLead(ownerID uuid.UUID, mods ...func(*models.Lead)) *models.Lead {
	lead := models.NewLead(ownerID)
	lead.FirstName = "Ada"
	lead.LastName = "Lovelace"
	lead.Email = fmt.Sprintf("lead-%s@example.com", lead.ID.String()[:8])
	lead.Company = "Analytical Engines"
	lead.City = "London"
	lead.Source = models.SourceWebsite
	for _, mod := range mods {
		mod(lead)
	}
	return lead
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Time returns a pointer to the UTC time for the given date
func Time(year int, month time.Month, day int) *time.Time {
	ts := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return &ts
}
