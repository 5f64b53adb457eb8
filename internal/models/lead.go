package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"leadbook/internal/common"

	"github.com/google/uuid"
)

// Lead sources accepted by the API
const (
	SourceWebsite     = "website"
	SourceFacebookAds = "facebook_ads"
	SourceGoogleAds   = "google_ads"
	SourceReferral    = "referral"
	SourceEvents      = "events"
	SourceOther       = "other"
)

// Lead statuses accepted by the API
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusLost      = "lost"
	StatusWon       = "won"
)

var (
	LeadSources  = []string{SourceWebsite, SourceFacebookAds, SourceGoogleAds, SourceReferral, SourceEvents, SourceOther}
	LeadStatuses = []string{StatusNew, StatusContacted, StatusQualified, StatusLost, StatusWon}
)

// Lead is a sales prospect owned by exactly one user.
type Lead struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	Company        string     `json:"company" db:"company"`
	City           string     `json:"city" db:"city"`
	State          string     `json:"state" db:"state"`
	Source         string     `json:"source" db:"source"`
	Status         string     `json:"status" db:"status"`
	Score          *float64   `json:"score" db:"score"`
	LeadValue      *float64   `json:"lead_value" db:"lead_value"`
	LastActivityAt *time.Time `json:"last_activity_at" db:"last_activity_at"`
	IsQualified    bool       `json:"is_qualified" db:"is_qualified"`
	CreatedBy      uuid.UUID  `json:"createdBy" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewLead returns a lead carrying the schema defaults for the given owner
func NewLead(ownerID uuid.UUID) *Lead {
	return &Lead{
		ID:        uuid.New(),
		CreatedBy: ownerID,
		Status:    StatusNew,
	}
}

// FullName joins first and last name the way the list view renders it
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Normalize trims text fields and lowercases the email.
func (l *Lead) Normalize() {
	l.FirstName = strings.TrimSpace(l.FirstName)
	l.LastName = strings.TrimSpace(l.LastName)
	l.Email = common.NormalizeEmail(l.Email)
	l.Phone = strings.TrimSpace(l.Phone)
	l.Company = strings.TrimSpace(l.Company)
	l.City = strings.TrimSpace(l.City)
	l.State = strings.TrimSpace(l.State)
	l.Source = strings.TrimSpace(l.Source)
	l.Status = strings.TrimSpace(l.Status)
	if l.Status == "" {
		l.Status = StatusNew
	}
}

// Validate enforces the lead schema. It returns nil or a *common.ValidationError.
func (l *Lead) Validate() error {
	verr := &common.ValidationError{}

	if l.FirstName == "" {
		verr.Add("first_name", "first_name is required")
	}
	if l.Email == "" {
		verr.Add("email", "email is required")
	} else if !looksLikeEmail(l.Email) {
		verr.Add("email", "email is invalid")
	}
	if l.Source == "" {
		verr.Add("source", "source is required")
	} else if !IsLeadSource(l.Source) {
		verr.Add("source", fmt.Sprintf("`%s` is not a valid source", l.Source))
	}
	if !IsLeadStatus(l.Status) {
		verr.Add("status", fmt.Sprintf("`%s` is not a valid status", l.Status))
	}
	if l.Score != nil && (*l.Score < 0 || *l.Score > 100) {
		verr.Add("score", "score must be between 0 and 100")
	}
	if l.CreatedBy == uuid.Nil {
		verr.Add("createdBy", "createdBy is required")
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// IsLeadSource reports whether s is one of the accepted sources
func IsLeadSource(s string) bool {
	return contains(LeadSources, s)
}

// IsLeadStatus reports whether s is one of the accepted statuses
func IsLeadStatus(s string) bool {
	return contains(LeadStatuses, s)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func looksLikeEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n")
}

// LeadPatch carries the user-supplied lead fields of a create or update
// request. Absent fields are left untouched when applied.
type LeadPatch struct {
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	Email          *string        `json:"email"`
	Phone          *string        `json:"phone"`
	Company        *string        `json:"company"`
	City           *string        `json:"city"`
	State          *string        `json:"state"`
	Source         *string        `json:"source"`
	Status         *string        `json:"status"`
	Score          OptionalNumber `json:"score"`
	LeadValue      OptionalNumber `json:"lead_value"`
	LastActivityAt OptionalTime   `json:"last_activity_at"`
	IsQualified    *bool          `json:"is_qualified"`
}

// ApplyTo copies every supplied field onto lead.
func (p *LeadPatch) ApplyTo(lead *Lead) {
	setString(&lead.FirstName, p.FirstName)
	setString(&lead.LastName, p.LastName)
	setString(&lead.Email, p.Email)
	setString(&lead.Phone, p.Phone)
	setString(&lead.Company, p.Company)
	setString(&lead.City, p.City)
	setString(&lead.State, p.State)
	setString(&lead.Source, p.Source)
	setString(&lead.Status, p.Status)
	if p.Score.Set {
		lead.Score = p.Score.Value
	}
	if p.LeadValue.Set {
		lead.LeadValue = p.LeadValue.Value
	}
	if p.LastActivityAt.Set {
		lead.LastActivityAt = p.LastActivityAt.Value
	}
	if p.IsQualified != nil {
		lead.IsQualified = *p.IsQualified
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// OptionalNumber decodes a JSON number, a numeric string, or null/"" (clear).
type OptionalNumber struct {
	Set   bool
	Value *float64
}

func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	n.Set = true
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		n.Value = nil
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			n.Value = nil
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("cannot use %s as a number", string(data))
	}
	n.Value = &v
	return nil
}

// OptionalTime decodes an RFC3339 timestamp, a YYYY-MM-DD date, or null/"" (clear).
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (t *OptionalTime) UnmarshalJSON(data []byte) error {
	t.Set = true
	if string(bytes.TrimSpace(data)) == "null" {
		t.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot use %s as a date", string(data))
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Value = nil
		return nil
	}

	parsed, _, ok := ParseDate(raw)
	if !ok {
		return fmt.Errorf("cannot use %q as a date", raw)
	}
	t.Value = &parsed
	return nil
}

// ParseDate accepts RFC3339 (with or without fractional seconds) and
// YYYY-MM-DD. dateOnly reports whether the input carried no time of day.
func ParseDate(raw string) (parsed time.Time, dateOnly bool, ok bool) {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC(), false, true
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts.UTC(), true, true
	}
	return time.Time{}, false, false
}
