package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadField names a filterable lead attribute. Values match column names;
// FieldName is virtual and covers first name, last name and full name.
type LeadField string

const (
	FieldName           LeadField = "name"
	FieldEmail          LeadField = "email"
	FieldCompany        LeadField = "company"
	FieldCity           LeadField = "city"
	FieldStatus         LeadField = "status"
	FieldSource         LeadField = "source"
	FieldScore          LeadField = "score"
	FieldLeadValue      LeadField = "lead_value"
	FieldCreatedAt      LeadField = "created_at"
	FieldLastActivityAt LeadField = "last_activity_at"
	FieldIsQualified    LeadField = "is_qualified"
)

// CompareOp is a numeric comparison used by Range filters
type CompareOp string

const (
	OpEq  CompareOp = "eq"
	OpGt  CompareOp = "gt"
	OpLt  CompareOp = "lt"
	OpGte CompareOp = "gte"
	OpLte CompareOp = "lte"
)

// Filter is one typed constraint of a LeadQuery. The set of implementations
// is closed: Equals, Contains, Range, Between, TimeWindow, BooleanEquals, AnyOf.
type Filter interface {
	isFilter()
}

// Equals matches a text field exactly. FoldCase makes the match case-insensitive.
type Equals struct {
	Field    LeadField
	Value    string
	FoldCase bool
}

// Contains matches a case-insensitive literal substring.
type Contains struct {
	Field LeadField
	Value string
}

// Range compares a numeric field against a bound.
type Range struct {
	Field LeadField
	Op    CompareOp
	Value float64
}

// Between matches numeric values inside [Lower, Upper].
type Between struct {
	Field LeadField
	Lower float64
	Upper float64
}

// TimeWindow matches timestamps inside [From, To]; a nil bound is open.
type TimeWindow struct {
	Field LeadField
	From  *time.Time
	To    *time.Time
}

// BooleanEquals matches a boolean field.
type BooleanEquals struct {
	Field LeadField
	Value bool
}

// AnyOf is satisfied when at least one member filter matches.
type AnyOf struct {
	Filters []Filter
}

func (Equals) isFilter()        {}
func (Contains) isFilter()      {}
func (Range) isFilter()         {}
func (Between) isFilter()       {}
func (TimeWindow) isFilter()    {}
func (BooleanEquals) isFilter() {}
func (AnyOf) isFilter()         {}

// LeadQuery is the normalized, owner-scoped lead search handed to a
// LeadRepository. Filters are AND-ed; results are always ordered by
// created_at descending.
type LeadQuery struct {
	OwnerID uuid.UUID
	Filters []Filter
	Page    int
	Limit   int
	Skip    int
}

// TotalPages returns ceil(total/limit)
func (q *LeadQuery) TotalPages(total int64) int64 {
	if q.Limit <= 0 {
		return 0
	}
	return (total + int64(q.Limit) - 1) / int64(q.Limit)
}

// Matches evaluates the query against a single lead, owner scope included.
func (q *LeadQuery) Matches(lead *Lead) bool {
	if lead == nil || lead.CreatedBy != q.OwnerID {
		return false
	}
	for _, f := range q.Filters {
		if !MatchFilter(f, lead) {
			return false
		}
	}
	return true
}

// MatchFilter evaluates a single filter against a lead
func MatchFilter(f Filter, lead *Lead) bool {
	switch f := f.(type) {
	case Equals:
		for _, v := range lead.textValues(f.Field) {
			if f.FoldCase && strings.EqualFold(v, f.Value) {
				return true
			}
			if !f.FoldCase && v == f.Value {
				return true
			}
		}
		return false
	case Contains:
		needle := strings.ToLower(f.Value)
		for _, v := range lead.textValues(f.Field) {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
		return false
	case Range:
		v := lead.numberValue(f.Field)
		if v == nil {
			return false
		}
		switch f.Op {
		case OpEq:
			return *v == f.Value
		case OpGt:
			return *v > f.Value
		case OpLt:
			return *v < f.Value
		case OpGte:
			return *v >= f.Value
		case OpLte:
			return *v <= f.Value
		}
		return false
	case Between:
		v := lead.numberValue(f.Field)
		return v != nil && *v >= f.Lower && *v <= f.Upper
	case TimeWindow:
		ts := lead.timeValue(f.Field)
		if ts == nil {
			return false
		}
		if f.From != nil && ts.Before(*f.From) {
			return false
		}
		if f.To != nil && ts.After(*f.To) {
			return false
		}
		return true
	case BooleanEquals:
		return f.Field == FieldIsQualified && lead.IsQualified == f.Value
	case AnyOf:
		for _, member := range f.Filters {
			if MatchFilter(member, lead) {
				return true
			}
		}
		return false
	}
	return false
}

func (l *Lead) textValues(field LeadField) []string {
	switch field {
	case FieldName:
		return []string{l.FirstName, l.LastName, l.FullName()}
	case FieldEmail:
		return []string{l.Email}
	case FieldCompany:
		return []string{l.Company}
	case FieldCity:
		return []string{l.City}
	case FieldStatus:
		return []string{l.Status}
	case FieldSource:
		return []string{l.Source}
	}
	return nil
}

func (l *Lead) numberValue(field LeadField) *float64 {
	switch field {
	case FieldScore:
		return l.Score
	case FieldLeadValue:
		return l.LeadValue
	}
	return nil
}

func (l *Lead) timeValue(field LeadField) *time.Time {
	switch field {
	case FieldCreatedAt:
		return &l.CreatedAt
	case FieldLastActivityAt:
		return l.LastActivityAt
	}
	return nil
}
