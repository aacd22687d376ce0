package dataset

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/domain/dataset"
)

// dialect renders the JSON-expansion queries for one database. Callers pass
// only allow-listed aggregate functions and comparison operators; the column
// name always travels as a bind parameter.
type dialect interface {
	name() string
	aggregate(op dataset.AggregateOp, filename, column string) (string, []any)
	filter(cmp dataset.Comparison, filename, column string, value json.Number) (string, []any)
}

func dialectFor(db *gorm.DB) dialect {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return sqliteDialect{}
	}
	return postgresDialect{}
}

// postgresDialect does arithmetic in numeric so integer sums stay exact.
type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) aggregate(op dataset.AggregateOp, filename, column string) (string, []any) {
	if op == dataset.OpCount {
		return `SELECT COUNT(CASE WHEN jsonb_typeof(e.value -> ?::text) <> 'null' THEN 1 END)
FROM data_record r
CROSS JOIN LATERAL jsonb_array_elements(r.data::jsonb) AS e(value)
WHERE r.filename = ?`, []any{column, filename}
	}
	q := fmt.Sprintf(`SELECT %s(CASE WHEN jsonb_typeof(e.value -> ?::text) = 'number' THEN (e.value ->> ?::text)::numeric END)::text
FROM data_record r
CROSS JOIN LATERAL jsonb_array_elements(r.data::jsonb) AS e(value)
WHERE r.filename = ?`, op.SQL())
	return q, []any{column, column, filename}
}

func (postgresDialect) filter(cmp dataset.Comparison, filename, column string, value json.Number) (string, []any) {
	q := fmt.Sprintf(`SELECT e.value
FROM data_record r
CROSS JOIN LATERAL jsonb_array_elements(r.data::jsonb) WITH ORDINALITY AS e(value, ord)
WHERE r.filename = ?
  AND (CASE WHEN jsonb_typeof(e.value -> ?::text) = 'number' THEN (e.value ->> ?::text)::numeric END) %s ?::numeric
ORDER BY r.created_at, r.id, e.ord`, cmp.SQL())
	return q, []any{filename, column, column, value.String()}
}

// sqliteDialect expands each row object with a second json_each and matches
// the key by equality, so any column name works without building a JSON path.
// Integer cells stay integers, which keeps SUM/MIN/MAX exact.
type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) aggregate(op dataset.AggregateOp, filename, column string) (string, []any) {
	if op == dataset.OpCount {
		return `SELECT COUNT(CASE WHEN k.type <> 'null' THEN 1 END)
FROM data_record r, json_each(r.data) e, json_each(e.value) k
WHERE r.filename = ? AND k.key = ?`, []any{filename, column}
	}
	q := fmt.Sprintf(`SELECT %s(CASE WHEN k.type IN ('integer', 'real') THEN k.value END)
FROM data_record r, json_each(r.data) e, json_each(e.value) k
WHERE r.filename = ? AND k.key = ?`, op.SQL())
	return q, []any{filename, column}
}

func (sqliteDialect) filter(cmp dataset.Comparison, filename, column string, value json.Number) (string, []any) {
	q := fmt.Sprintf(`SELECT e.value
FROM data_record r, json_each(r.data) e, json_each(e.value) k
WHERE r.filename = ? AND k.key = ?
  AND k.type IN ('integer', 'real')
  AND k.value %s ?
ORDER BY r.created_at, r.id, e.key`, cmp.SQL())
	return q, []any{filename, column, sqliteNumber(value)}
}

// sqliteNumber binds value as INTEGER when it fits so comparisons against
// integer cells are exact. Text would never compare equal to a number.
func sqliteNumber(value json.Number) any {
	if i, err := value.Int64(); err == nil {
		return i
	}
	f, _ := value.Float64()
	return f
}

// normalizeDecimal trims the trailing fractional zeros numeric division
// leaves behind, so 3.7500000000000000 renders as 3.75.
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") || strings.ContainsAny(s, "eE") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
