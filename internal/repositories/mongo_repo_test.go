package repositories

import (
	"regexp"
	"testing"
	"time"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestMongoLeadFilter_OwnerScope(t *testing.T) {
	owner := uuid.New()
	filter := mongoLeadFilter(&models.LeadQuery{
		OwnerID: owner,
		Filters: []models.Filter{models.BooleanEquals{Field: models.FieldIsQualified, Value: true}},
	})

	assert.Equal(t, bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "created_by", Value: owner.String()}},
		bson.D{{Key: "is_qualified", Value: true}},
	}}}, filter)
}

func TestMongoFilter(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		f    models.Filter
		want bson.D
	}{
		{
			name: "exact",
			f:    models.Equals{Field: models.FieldSource, Value: "events"},
			want: bson.D{{Key: "source", Value: "events"}},
		},
		{
			name: "folded exact is anchored",
			f:    models.Equals{Field: models.FieldEmail, Value: "a.b@x.io", FoldCase: true},
			want: bson.D{{Key: "email", Value: bson.Regex{Pattern: `^a\.b@x\.io$`, Options: "i"}}},
		},
		{
			name: "contains quotes metacharacters",
			f:    models.Contains{Field: models.FieldCompany, Value: "(.*)"},
			want: bson.D{{Key: "company", Value: bson.Regex{Pattern: regexp.QuoteMeta("(.*)"), Options: "i"}}},
		},
		{
			name: "name covers full name",
			f:    models.Contains{Field: models.FieldName, Value: "ada"},
			want: bson.D{{Key: "$or", Value: bson.A{
				bson.D{{Key: "first_name", Value: bson.Regex{Pattern: "ada", Options: "i"}}},
				bson.D{{Key: "last_name", Value: bson.Regex{Pattern: "ada", Options: "i"}}},
				bson.D{{Key: "full_name", Value: bson.Regex{Pattern: "ada", Options: "i"}}},
			}}},
		},
		{
			name: "range",
			f:    models.Range{Field: models.FieldScore, Op: models.OpGt, Value: 40},
			want: bson.D{{Key: "score", Value: bson.D{{Key: "$gt", Value: 40.0}}}},
		},
		{
			name: "between",
			f:    models.Between{Field: models.FieldLeadValue, Lower: 1, Upper: 2},
			want: bson.D{{Key: "lead_value", Value: bson.D{{Key: "$gte", Value: 1.0}, {Key: "$lte", Value: 2.0}}}},
		},
		{
			name: "open window",
			f:    models.TimeWindow{Field: models.FieldCreatedAt, From: &from},
			want: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: from}}}},
		},
		{
			name: "unbounded window",
			f:    models.TimeWindow{Field: models.FieldLastActivityAt},
			want: bson.D{{Key: "last_activity_at", Value: bson.D{{Key: "$ne", Value: nil}}}},
		},
		{
			name: "numeric op on text field",
			f:    models.Range{Field: models.FieldCity, Op: models.OpGt, Value: 1},
			want: matchNothing,
		},
		{
			name: "empty any of",
			f:    models.AnyOf{},
			want: matchNothing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mongoFilter(tt.f))
		})
	}
}

func TestLeadDocument_RoundTrip(t *testing.T) {
	score := 64.0
	lead := models.NewLead(uuid.New())
	lead.FirstName = "Ada"
	lead.LastName = "Lovelace"
	lead.Score = &score
	lead.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := newLeadDocument(lead)
	assert.Equal(t, "Ada Lovelace", doc.FullName)
	assert.Equal(t, lead.CreatedBy.String(), doc.CreatedBy)

	back, err := doc.toModel()
	require.NoError(t, err)
	assert.Equal(t, lead.ID, back.ID)
	assert.Equal(t, lead.CreatedBy, back.CreatedBy)
	assert.Equal(t, 64.0, *back.Score)

	doc.CreatedBy = "not-a-uuid"
	_, err = doc.toModel()
	assert.Error(t, err)
}

func TestMapMongoError(t *testing.T) {
	assert.Nil(t, mapMongoError(nil))
	assert.ErrorIs(t, mapMongoError(mongo.ErrNoDocuments), common.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	var dupErr *common.DuplicateKeyError
	require.ErrorAs(t, mapMongoError(dup), &dupErr)
	assert.Equal(t, "email", dupErr.Field)
}
