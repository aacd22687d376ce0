package ingest

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred storage type of a column.
type Kind int

const (
	KindObject Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int64"
	case KindFloat:
		return "float64"
	case KindBool:
		return "bool"
	default:
		return "object"
	}
}

var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isMissing(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// inferKind picks the narrowest type that holds every non-null value.
// Integer columns with nulls widen to float; boolean columns with nulls
// fall back to object. A column with rows but no values is float.
func inferKind(col []*string) Kind {
	if len(col) == 0 {
		return KindObject
	}
	var (
		values            int
		nulls             int
		allInt, allNumber = true, true
		allBool           = true
	)
	for _, v := range col {
		if v == nil {
			nulls++
			continue
		}
		values++
		s := strings.TrimSpace(*v)
		if allInt {
			if _, ok := parseInt(s); !ok {
				allInt = false
			}
		}
		if allNumber {
			if _, ok := parseFloat(s); !ok {
				allNumber = false
			}
		}
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
		if !allInt && !allNumber && !allBool {
			return KindObject
		}
	}
	switch {
	case values == 0:
		return KindFloat
	case allInt && nulls == 0:
		return KindInt
	case allNumber:
		return KindFloat
	case allBool && nulls == 0:
		return KindBool
	default:
		return KindObject
	}
}

// convert renders one cell as a JSON-ready value of kind k.
func convert(k Kind, v *string) any {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	switch k {
	case KindInt:
		n, _ := parseInt(s)
		return n
	case KindFloat:
		f, _ := parseFloat(s)
		return f
	case KindBool:
		b, _ := parseBool(s)
		return b
	default:
		return *v
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// parseFloat accepts finite decimal numbers only. Infinities cannot be
// stored in JSON and hex floats are not numbers a spreadsheet would write.
func parseFloat(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xXpP_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}
