package dataset

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/tabula-backend/internal/domain"
	"github.com/yungbote/tabula-backend/internal/domain/dataset"
	"github.com/yungbote/tabula-backend/internal/platform/dbctx"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type RecordRepo interface {
	Create(dbc dbctx.Context, rec *types.DataRecord) error
	DeleteByFilename(dbc dbctx.Context, filename string) (int64, error)
	CountByFilename(dbc dbctx.Context, filename string) (int64, error)
	// Aggregate applies op to the numeric values of column across every row
	// stored under filename. The result is an exact decimal; "" means there
	// were no values.
	Aggregate(dbc dbctx.Context, filename, column string, op dataset.AggregateOp) (json.Number, error)
	// Filter returns the row-documents whose numeric column value satisfies
	// cmp against value, in upload order.
	Filter(dbc dbctx.Context, filename, column string, cmp dataset.Comparison, value json.Number) ([]types.Document, error)
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	repoLog := baseLog.With("repo", "RecordRepo")
	return &recordRepo{db: db, log: repoLog}
}

func (r *recordRepo) Create(dbc dbctx.Context, rec *types.DataRecord) error {
	if rec == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(rec).Error
}

func (r *recordRepo) DeleteByFilename(dbc dbctx.Context, filename string) (int64, error) {
	if filename == "" {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Where("filename = ?", filename).
		Delete(&types.DataRecord{})
	return res.RowsAffected, res.Error
}

func (r *recordRepo) CountByFilename(dbc dbctx.Context, filename string) (int64, error) {
	var count int64
	if err := dbc.Conn(r.db).
		Model(&types.DataRecord{}).
		Where("filename = ?", filename).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recordRepo) Aggregate(dbc dbctx.Context, filename, column string, op dataset.AggregateOp) (json.Number, error) {
	if op.SQL() == "" {
		return "", fmt.Errorf("unsupported aggregate %q", op)
	}
	if err := dataset.ValidateColumnName(column); err != nil {
		return "", err
	}
	transaction := dbc.Conn(r.db)
	query, args := dialectFor(transaction).aggregate(op, filename, column)

	// Scanned as text: numeric and integer results keep every digit.
	var out sql.NullString
	if err := transaction.Raw(query, args...).Row().Scan(&out); err != nil {
		return "", fmt.Errorf("aggregate %s(%s): %w", op, column, err)
	}
	if !out.Valid {
		return "", nil
	}
	return json.Number(normalizeDecimal(out.String)), nil
}

func (r *recordRepo) Filter(dbc dbctx.Context, filename, column string, cmp dataset.Comparison, value json.Number) ([]types.Document, error) {
	if cmp.SQL() == "" {
		return nil, fmt.Errorf("unsupported comparison %q", cmp)
	}
	if err := dataset.ValidateColumnName(column); err != nil {
		return nil, err
	}
	transaction := dbc.Conn(r.db)
	query, args := dialectFor(transaction).filter(cmp, filename, column, value)

	rows, err := transaction.Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("filter %s %s %s: %w", column, cmp, value, err)
	}
	defer rows.Close()

	results := []types.Document{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// decodeDocument keeps numbers as json.Number so integers survive the round trip.
func decodeDocument(raw []byte) (types.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	doc := types.Document{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode row document: %w", err)
	}
	return doc, nil
}
