package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	ExtCSV  = "csv"
	ExtXLSX = "xlsx"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Table is a parsed upload: header order, column type labels and one
// document per data row.
type Table struct {
	Columns []string
	Schema  map[string]string
	Rows    []map[string]any
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// AllowedExtension reports whether filename can be parsed.
func AllowedExtension(filename string) bool {
	switch Extension(filename) {
	case ExtCSV, ExtXLSX:
		return true
	default:
		return false
	}
}

// Parse reads r according to the extension of filename.
func Parse(filename string, r io.Reader) (*Table, error) {
	var (
		raw [][]string
		err error
	)
	switch Extension(filename) {
	case ExtCSV:
		raw, err = readCSV(r)
	case ExtXLSX:
		raw, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return build(raw)
}

// build turns raw cell text into a typed Table. The first row is the header.
func build(raw [][]string) (*Table, error) {
	if len(raw) == 0 {
		return nil, errors.New("no columns to parse from file")
	}
	columns := normalizeHeader(raw[0])
	body := raw[1:]

	cells := make([][]*string, len(body))
	for i, rec := range body {
		if len(rec) > len(columns) {
			// line numbers are 1-based and include the header
			return nil, fmt.Errorf("error tokenizing data: expected %d fields in line %d, saw %d", len(columns), i+2, len(rec))
		}
		row := make([]*string, len(columns))
		for j := range rec {
			if isMissing(rec[j]) {
				continue
			}
			v := rec[j]
			row[j] = &v
		}
		cells[i] = row
	}

	schema := make(map[string]string, len(columns))
	kinds := make([]Kind, len(columns))
	for j, name := range columns {
		col := make([]*string, len(cells))
		for i := range cells {
			col[i] = cells[i][j]
		}
		kinds[j] = inferKind(col)
		schema[name] = kinds[j].String()
	}

	rows := make([]map[string]any, len(cells))
	for i, rec := range cells {
		doc := make(map[string]any, len(columns))
		for j, name := range columns {
			doc[name] = convert(kinds[j], rec[j])
		}
		rows[i] = doc
	}

	return &Table{Columns: columns, Schema: schema, Rows: rows}, nil
}
