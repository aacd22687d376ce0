package dataset

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AggregateOp is an allow-listed aggregate function.
type AggregateOp string

const (
	OpAvg   AggregateOp = "avg"
	OpMin   AggregateOp = "min"
	OpMax   AggregateOp = "max"
	OpSum   AggregateOp = "sum"
	OpCount AggregateOp = "count"
)

var aggregateSQL = map[AggregateOp]string{
	OpAvg:   "AVG",
	OpMin:   "MIN",
	OpMax:   "MAX",
	OpSum:   "SUM",
	OpCount: "COUNT",
}

func ParseAggregateOp(raw string) (AggregateOp, bool) {
	op := AggregateOp(raw)
	_, ok := aggregateSQL[op]
	return op, ok
}

// SQL returns the SQL function name. Unknown ops return "".
func (op AggregateOp) SQL() string { return aggregateSQL[op] }

// Comparison is an allow-listed numeric comparison operator.
type Comparison string

const (
	CmpEq  Comparison = "="
	CmpNe  Comparison = "!="
	CmpLt  Comparison = "<"
	CmpLte Comparison = "<="
	CmpGt  Comparison = ">"
	CmpGte Comparison = ">="
)

var comparisonAliases = map[string]Comparison{
	"=":   CmpEq,
	"==":  CmpEq,
	"eq":  CmpEq,
	"!=":  CmpNe,
	"<>":  CmpNe,
	"ne":  CmpNe,
	"<":   CmpLt,
	"lt":  CmpLt,
	"<=":  CmpLte,
	"lte": CmpLte,
	"le":  CmpLte,
	">":   CmpGt,
	"gt":  CmpGt,
	">=":  CmpGte,
	"gte": CmpGte,
	"ge":  CmpGte,
}

// ParseComparison maps user input onto an operator. Empty input means "=".
func ParseComparison(raw string) (Comparison, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return CmpEq, true
	}
	c, ok := comparisonAliases[raw]
	return c, ok
}

// SQL returns the operator text. Only values produced by ParseComparison
// are ever rendered.
func (c Comparison) SQL() string {
	switch c {
	case CmpEq, CmpNe, CmpLt, CmpLte, CmpGt, CmpGte:
		return string(c)
	default:
		return ""
	}
}

const MaxColumnNameLen = 255

var ErrInvalidColumnName = errors.New("invalid column name")

// ValidateColumnName rejects names that could not have come from a parsed
// header. Column names are only ever bound as SQL parameters.
func ValidateColumnName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidColumnName)
	case len(name) > MaxColumnNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidColumnName, MaxColumnNameLen)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: not valid utf-8", ErrInvalidColumnName)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidColumnName)
		}
	}
	return nil
}
