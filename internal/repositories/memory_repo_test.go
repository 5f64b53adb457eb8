package repositories

import (
	"context"
	"fmt"
	"testing"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	store   *Store
	ownerID uuid.UUID
	ctx     context.Context
}

func (suite *MemoryStoreTestSuite) SetupTest() {
	suite.store = NewMemoryStore().Store()
	suite.ownerID = uuid.New()
	suite.ctx = context.Background()
}

func TestMemoryStoreTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func (suite *MemoryStoreTestSuite) seed(owner uuid.UUID, n int) []*models.Lead {
	leads := make([]*models.Lead, 0, n)
	for i := 0; i < n; i++ {
		score := float64(i * 4)
		lead := models.NewLead(owner)
		lead.FirstName = fmt.Sprintf("Lead%02d", i)
		lead.Email = fmt.Sprintf("lead%02d-%s@example.com", i, owner.String()[:8])
		lead.Source = models.SourceWebsite
		lead.Score = &score
		suite.Require().NoError(suite.store.Leads.Create(suite.ctx, lead))
		leads = append(leads, lead)
	}
	return leads
}

func (suite *MemoryStoreTestSuite) TestFind_PagesNewestFirst() {
	leads := suite.seed(suite.ownerID, 25)
	suite.seed(uuid.New(), 5)

	q := &models.LeadQuery{OwnerID: suite.ownerID, Page: 2, Limit: 10, Skip: 10}
	page, err := suite.store.Leads.Find(suite.ctx, q)
	suite.Require().NoError(err)
	suite.Require().Len(page, 10)
	assert.Equal(suite.T(), leads[14].ID, page[0].ID)
	assert.Equal(suite.T(), leads[5].ID, page[9].ID)

	total, err := suite.store.Leads.Count(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(25), total)

	q = &models.LeadQuery{OwnerID: suite.ownerID, Page: 4, Limit: 10, Skip: 30}
	page, err = suite.store.Leads.Find(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), page)
}

func (suite *MemoryStoreTestSuite) TestFind_AppliesFilters() {
	suite.seed(suite.ownerID, 25)

	q := &models.LeadQuery{
		OwnerID: suite.ownerID,
		Filters: []models.Filter{models.Between{Field: models.FieldScore, Lower: 50, Upper: 90}},
		Page:    1,
		Limit:   100,
	}
	found, err := suite.store.Leads.Find(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Len(suite.T(), found, 10)
	for _, lead := range found {
		assert.GreaterOrEqual(suite.T(), *lead.Score, 50.0)
		assert.LessOrEqual(suite.T(), *lead.Score, 90.0)
	}
}

func (suite *MemoryStoreTestSuite) TestOwnerScoping() {
	lead := suite.seed(suite.ownerID, 1)[0]
	stranger := uuid.New()

	_, err := suite.store.Leads.GetByID(suite.ctx, stranger, lead.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
	assert.ErrorIs(suite.T(), suite.store.Leads.Delete(suite.ctx, stranger, lead.ID), common.ErrNotFound)

	hijack := *lead
	hijack.CreatedBy = stranger
	assert.ErrorIs(suite.T(), suite.store.Leads.Update(suite.ctx, &hijack), common.ErrNotFound)

	got, err := suite.store.Leads.GetByID(suite.ctx, suite.ownerID, lead.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), lead.FirstName, got.FirstName)
}

func (suite *MemoryStoreTestSuite) TestReturnedLeadsAreCopies() {
	lead := suite.seed(suite.ownerID, 1)[0]

	got, err := suite.store.Leads.GetByID(suite.ctx, suite.ownerID, lead.ID)
	suite.Require().NoError(err)
	got.FirstName = "Mutated"

	again, err := suite.store.Leads.GetByID(suite.ctx, suite.ownerID, lead.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Lead00", again.FirstName)
}

func (suite *MemoryStoreTestSuite) TestLeadEmailIsUnique() {
	lead := suite.seed(suite.ownerID, 1)[0]

	dup := models.NewLead(uuid.New())
	dup.FirstName = "Copy"
	dup.Email = lead.Email
	dup.Source = models.SourceOther
	err := suite.store.Leads.Create(suite.ctx, dup)

	var dupErr *common.DuplicateKeyError
	suite.Require().ErrorAs(err, &dupErr)
	assert.Equal(suite.T(), "email", dupErr.Field)
}

func (suite *MemoryStoreTestSuite) TestUpdateKeepsCreatedAt() {
	lead := suite.seed(suite.ownerID, 1)[0]
	createdAt := lead.CreatedAt

	lead.City = "Paris"
	suite.Require().NoError(suite.store.Leads.Update(suite.ctx, lead))
	assert.Equal(suite.T(), createdAt, lead.CreatedAt)
	assert.True(suite.T(), lead.UpdatedAt.After(createdAt))
}

func (suite *MemoryStoreTestSuite) TestDelete() {
	leads := suite.seed(suite.ownerID, 2)

	suite.Require().NoError(suite.store.Leads.Delete(suite.ctx, suite.ownerID, leads[0].ID))
	assert.ErrorIs(suite.T(), suite.store.Leads.Delete(suite.ctx, suite.ownerID, leads[0].ID), common.ErrNotFound)

	total, err := suite.store.Leads.Count(suite.ctx, &models.LeadQuery{OwnerID: suite.ownerID})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), total)
}

func TestMemoryUsers(t *testing.T) {
	store := NewMemoryStore().Store()
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Name: "Grace", Email: "grace@navy.mil", PasswordHash: "hash"}
	require.NoError(t, store.Users.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	got, err := store.Users.GetByEmail(ctx, " GRACE@navy.mil")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	err = store.Users.Create(ctx, &models.User{ID: uuid.New(), Name: "Other", Email: "grace@navy.mil"})
	assert.ErrorIs(t, err, common.ErrDuplicateKey)

	_, err = store.Users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, store.Pinger.Ping(ctx))
}
