package models

import (
	"encoding/json"
	"testing"
	"time"

	"leadbook/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLead() *Lead {
	lead := NewLead(uuid.New())
	lead.FirstName = "Ada"
	lead.Email = "ada@example.com"
	lead.Source = SourceReferral
	return lead
}

func TestNewLead_Defaults(t *testing.T) {
	owner := uuid.New()
	lead := NewLead(owner)

	assert.NotEqual(t, uuid.Nil, lead.ID)
	assert.Equal(t, owner, lead.CreatedBy)
	assert.Equal(t, StatusNew, lead.Status)
	assert.False(t, lead.IsQualified)
	assert.Nil(t, lead.Score)
}

func TestLead_Validate(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		mutate func(*Lead)
		field  string
		msg    string
	}{
		{"missing first name", func(l *Lead) { l.FirstName = "" }, "first_name", "first_name is required"},
		{"missing email", func(l *Lead) { l.Email = "" }, "email", "email is required"},
		{"bad email", func(l *Lead) { l.Email = "not-an-email" }, "email", "email is invalid"},
		{"missing source", func(l *Lead) { l.Source = "" }, "source", "source is required"},
		{"unknown source", func(l *Lead) { l.Source = "tv" }, "source", "`tv` is not a valid source"},
		{"unknown status", func(l *Lead) { l.Status = "maybe" }, "status", "`maybe` is not a valid status"},
		{"score too high", func(l *Lead) { l.Score = score(101) }, "score", "score must be between 0 and 100"},
		{"score negative", func(l *Lead) { l.Score = score(-1) }, "score", "score must be between 0 and 100"},
		{"missing owner", func(l *Lead) { l.CreatedBy = uuid.Nil }, "createdBy", "createdBy is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := validLead()
			tt.mutate(lead)

			err := lead.Validate()
			var verr *common.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Fields[tt.field])
		})
	}

	t.Run("valid", func(t *testing.T) {
		lead := validLead()
		lead.Score = score(100)
		assert.NoError(t, lead.Validate())
	})
}

func TestLead_Normalize(t *testing.T) {
	lead := &Lead{FirstName: "  Ada ", Email: "  ADA@Example.COM ", City: " London "}
	lead.Normalize()

	assert.Equal(t, "Ada", lead.FirstName)
	assert.Equal(t, "ada@example.com", lead.Email)
	assert.Equal(t, "London", lead.City)
	assert.Equal(t, StatusNew, lead.Status)
}

func TestLeadPatch_PartialUpdate(t *testing.T) {
	lead := validLead()
	lead.City = "London"
	lead.Score = func() *float64 { v := 40.0; return &v }()

	var patch LeadPatch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"contacted","score":"75","lead_value":null}`), &patch))
	patch.ApplyTo(lead)

	assert.Equal(t, StatusContacted, lead.Status)
	assert.Equal(t, "London", lead.City, "absent fields are untouched")
	require.NotNil(t, lead.Score)
	assert.Equal(t, 75.0, *lead.Score)
	assert.Nil(t, lead.LeadValue)
	assert.Equal(t, "Ada", lead.FirstName)
}

func TestLeadPatch_ClearsScore(t *testing.T) {
	lead := validLead()
	v := 10.0
	lead.Score = &v

	var patch LeadPatch
	require.NoError(t, json.Unmarshal([]byte(`{"score":""}`), &patch))
	patch.ApplyTo(lead)
	assert.Nil(t, lead.Score)
}

func TestOptionalNumber_Invalid(t *testing.T) {
	var patch LeadPatch
	assert.Error(t, json.Unmarshal([]byte(`{"score":"high"}`), &patch))
	assert.Error(t, json.Unmarshal([]byte(`{"lead_value":true}`), &patch))
}

func TestOptionalTime(t *testing.T) {
	var patch LeadPatch
	require.NoError(t, json.Unmarshal([]byte(`{"last_activity_at":"2024-04-02"}`), &patch))
	require.True(t, patch.LastActivityAt.Set)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), *patch.LastActivityAt.Value)

	patch = LeadPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"last_activity_at":null}`), &patch))
	assert.True(t, patch.LastActivityAt.Set)
	assert.Nil(t, patch.LastActivityAt.Value)

	assert.Error(t, json.Unmarshal([]byte(`{"last_activity_at":"soon"}`), &patch))
}

func TestParseDate(t *testing.T) {
	ts, dateOnly, ok := ParseDate("2024-06-01T08:30:00+02:00")
	require.True(t, ok)
	assert.False(t, dateOnly)
	assert.Equal(t, time.Date(2024, 6, 1, 6, 30, 0, 0, time.UTC), ts)

	_, dateOnly, ok = ParseDate("2024-06-01")
	assert.True(t, ok)
	assert.True(t, dateOnly)

	_, _, ok = ParseDate("06/01/2024")
	assert.False(t, ok)
}

func TestLeadJSON_UsesWireNames(t *testing.T) {
	lead := validLead()
	data, err := json.Marshal(lead)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "createdBy")
	assert.Contains(t, raw, "first_name")
	assert.Contains(t, raw, "is_qualified")
	assert.Equal(t, lead.CreatedBy.String(), raw["createdBy"])
}
