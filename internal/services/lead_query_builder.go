package services

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leadbook/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from integer overflow.
	MaxPage = 1_000_000
)

// Fields searched by the free-text q parameter, OR-ed together.
var leadSearchFields = []models.LeadField{
	models.FieldName,
	models.FieldEmail,
	models.FieldCity,
	models.FieldCompany,
}

// Fields accepting <field>_eq, <field>_contains and bare <field> parameters.
var leadTextFilterFields = []models.LeadField{
	models.FieldEmail,
	models.FieldCompany,
	models.FieldCity,
	models.FieldName,
}

var leadEnumFilterFields = []models.LeadField{
	models.FieldStatus,
	models.FieldSource,
}

var leadNumericFilterFields = []models.LeadField{
	models.FieldScore,
	models.FieldLeadValue,
}

var leadNumericOps = []models.CompareOp{
	models.OpEq,
	models.OpGt,
	models.OpGte,
	models.OpLt,
	models.OpLte,
}

type dateFilterParams struct {
	field     models.LeadField
	fromAlias string
	toAlias   string
}

var leadDateFilterFields = []dateFilterParams{
	{field: models.FieldCreatedAt, fromAlias: "created_after", toAlias: "created_before"},
	{field: models.FieldLastActivityAt},
}

// BuildLeadQuery converts raw list parameters into an owner-scoped query.
// It never fails: malformed values are treated as absent filters. Filters
// are emitted in a fixed order so equal inputs give equal queries.
func BuildLeadQuery(params url.Values, ownerID uuid.UUID) *models.LeadQuery {
	page := parsePositiveInt(params.Get("page"), DefaultPage)
	if page > MaxPage {
		page = MaxPage
	}
	limit := parsePositiveInt(params.Get("limit"), DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := &models.LeadQuery{
		OwnerID: ownerID,
		Page:    page,
		Limit:   limit,
		Skip:    (page - 1) * limit,
	}

	if f, ok := searchFilter(params.Get("q")); ok {
		query.Filters = append(query.Filters, f)
	}
	for _, field := range leadTextFilterFields {
		if f, ok := textFilter(params, field); ok {
			query.Filters = append(query.Filters, f)
		}
	}
	for _, field := range leadEnumFilterFields {
		if f, ok := enumFilter(params.Get(string(field)), field); ok {
			query.Filters = append(query.Filters, f)
		}
	}
	for _, field := range leadNumericFilterFields {
		query.Filters = append(query.Filters, numericFilters(params, field)...)
	}
	for _, d := range leadDateFilterFields {
		if f, ok := dateFilter(params, d); ok {
			query.Filters = append(query.Filters, f)
		}
	}
	if f, ok := booleanFilter(params.Get(string(models.FieldIsQualified)), models.FieldIsQualified); ok {
		query.Filters = append(query.Filters, f)
	}

	return query
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func searchFilter(raw string) (models.Filter, bool) {
	term := strings.TrimSpace(raw)
	if term == "" {
		return nil, false
	}
	members := make([]models.Filter, 0, len(leadSearchFields))
	for _, field := range leadSearchFields {
		members = append(members, models.Contains{Field: field, Value: term})
	}
	return models.AnyOf{Filters: members}, true
}

// textFilter prefers an exact match over a substring match for the same field.
func textFilter(params url.Values, field models.LeadField) (models.Filter, bool) {
	name := string(field)
	if v := strings.TrimSpace(params.Get(name + "_eq")); v != "" {
		return models.Equals{Field: field, Value: v, FoldCase: true}, true
	}
	v := strings.TrimSpace(params.Get(name + "_contains"))
	if v == "" {
		v = strings.TrimSpace(params.Get(name))
	}
	if v == "" {
		return nil, false
	}
	return models.Contains{Field: field, Value: v}, true
}

func enumFilter(raw string, field models.LeadField) (models.Filter, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "all") {
		return nil, false
	}
	return models.Equals{Field: field, Value: v}, true
}

func numericFilters(params url.Values, field models.LeadField) []models.Filter {
	var filters []models.Filter
	name := string(field)

	for _, op := range leadNumericOps {
		if v, ok := parseNumber(params.Get(name + "_" + string(op))); ok {
			filters = append(filters, models.Range{Field: field, Op: op, Value: v})
		}
	}

	if lower, upper, ok := parseBounds(params.Get(name + "_between")); ok {
		filters = append(filters, models.Between{Field: field, Lower: lower, Upper: upper})
	}
	return filters
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseBounds reads "lo,hi"; reversed bounds are swapped.
func parseBounds(raw string) (float64, float64, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lower, ok := parseNumber(parts[0])
	if !ok {
		return 0, 0, false
	}
	upper, ok := parseNumber(parts[1])
	if !ok {
		return 0, 0, false
	}
	if lower > upper {
		lower, upper = upper, lower
	}
	return lower, upper, true
}

func dateFilter(params url.Values, d dateFilterParams) (models.Filter, bool) {
	name := string(d.field)

	fromRaw := params.Get(name + "_from")
	if strings.TrimSpace(fromRaw) == "" && d.fromAlias != "" {
		fromRaw = params.Get(d.fromAlias)
	}
	toRaw := params.Get(name + "_to")
	if strings.TrimSpace(toRaw) == "" && d.toAlias != "" {
		toRaw = params.Get(d.toAlias)
	}

	window := models.TimeWindow{Field: d.field}
	if from, _, ok := models.ParseDate(strings.TrimSpace(fromRaw)); ok {
		window.From = &from
	}
	if to, dateOnly, ok := models.ParseDate(strings.TrimSpace(toRaw)); ok {
		if dateOnly {
			// a bare date as upper bound includes that whole day
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		window.To = &to
	}

	if window.From == nil && window.To == nil {
		return nil, false
	}
	return window, true
}

func booleanFilter(raw string, field models.LeadField) (models.Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return models.BooleanEquals{Field: field, Value: true}, true
	case "false":
		return models.BooleanEquals{Field: field, Value: false}, true
	}
	return nil, false
}
