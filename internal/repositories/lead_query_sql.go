package repositories

import (
	"fmt"
	"strings"

	"leadbook/internal/models"
)

// Columns a filter may reference. Anything else compiles to FALSE.
var leadFilterColumns = map[models.LeadField]string{
	models.FieldEmail:          "email",
	models.FieldCompany:        "company",
	models.FieldCity:           "city",
	models.FieldStatus:         "status",
	models.FieldSource:         "source",
	models.FieldScore:          "score",
	models.FieldLeadValue:      "lead_value",
	models.FieldCreatedAt:      "created_at",
	models.FieldLastActivityAt: "last_activity_at",
	models.FieldIsQualified:    "is_qualified",
}

// FieldName spans several expressions
var leadNameExpressions = []string{
	"first_name",
	"last_name",
	"btrim(first_name || ' ' || last_name)",
}

var sqlCompareOps = map[models.CompareOp]string{
	models.OpEq:  "=",
	models.OpGt:  ">",
	models.OpLt:  "<",
	models.OpGte: ">=",
	models.OpLte: "<=",
}

type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// compileLeadWhere renders the owner scope plus every filter as a WHERE
// clause body with positional arguments.
func compileLeadWhere(q *models.LeadQuery) (string, []any) {
	b := &sqlBuilder{}
	conditions := []string{"created_by = " + b.bind(q.OwnerID)}
	for _, f := range q.Filters {
		conditions = append(conditions, b.compile(f))
	}
	return strings.Join(conditions, " AND "), b.args
}

func (b *sqlBuilder) compile(f models.Filter) string {
	switch f := f.(type) {
	case models.Equals:
		exprs := b.textExpressions(f.Field)
		if len(exprs) == 0 {
			return "FALSE"
		}
		if !f.FoldCase {
			return orJoin(exprs, func(expr string) string {
				return expr + " = " + b.bind(f.Value)
			})
		}
		return orJoin(exprs, func(expr string) string {
			return "lower(" + expr + ") = lower(" + b.bind(f.Value) + ")"
		})
	case models.Contains:
		exprs := b.textExpressions(f.Field)
		if len(exprs) == 0 {
			return "FALSE"
		}
		pattern := "%" + escapeLike(f.Value) + "%"
		return orJoin(exprs, func(expr string) string {
			return expr + " ILIKE " + b.bind(pattern) + ` ESCAPE '\'`
		})
	case models.Range:
		col, ok := leadFilterColumns[f.Field]
		op, opOK := sqlCompareOps[f.Op]
		if !ok || !opOK || !isNumericField(f.Field) {
			return "FALSE"
		}
		return fmt.Sprintf("%s %s %s", col, op, b.bind(f.Value))
	case models.Between:
		col, ok := leadFilterColumns[f.Field]
		if !ok || !isNumericField(f.Field) {
			return "FALSE"
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, b.bind(f.Lower), b.bind(f.Upper))
	case models.TimeWindow:
		col, ok := leadFilterColumns[f.Field]
		if !ok {
			return "FALSE"
		}
		var parts []string
		if f.From != nil {
			parts = append(parts, col+" >= "+b.bind(*f.From))
		}
		if f.To != nil {
			parts = append(parts, col+" <= "+b.bind(*f.To))
		}
		if len(parts) == 0 {
			return col + " IS NOT NULL"
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case models.BooleanEquals:
		if f.Field != models.FieldIsQualified {
			return "FALSE"
		}
		return "is_qualified = " + b.bind(f.Value)
	case models.AnyOf:
		if len(f.Filters) == 0 {
			return "FALSE"
		}
		parts := make([]string, 0, len(f.Filters))
		for _, member := range f.Filters {
			parts = append(parts, b.compile(member))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}
	return "FALSE"
}

func (b *sqlBuilder) textExpressions(field models.LeadField) []string {
	if field == models.FieldName {
		return leadNameExpressions
	}
	switch field {
	case models.FieldEmail, models.FieldCompany, models.FieldCity, models.FieldStatus, models.FieldSource:
		return []string{leadFilterColumns[field]}
	}
	return nil
}

func isNumericField(field models.LeadField) bool {
	return field == models.FieldScore || field == models.FieldLeadValue
}

func orJoin(exprs []string, render func(string) string) string {
	if len(exprs) == 1 {
		return render(exprs[0])
	}
	parts := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		parts = append(parts, render(expr))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// escapeLike makes user input literal inside an ILIKE pattern
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
