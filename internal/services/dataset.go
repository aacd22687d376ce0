package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/data/db"
	"github.com/yungbote/tabula-backend/internal/data/repos"
	types "github.com/yungbote/tabula-backend/internal/domain"
	"github.com/yungbote/tabula-backend/internal/domain/dataset"
	"github.com/yungbote/tabula-backend/internal/ingest"
	"github.com/yungbote/tabula-backend/internal/platform/apierr"
	"github.com/yungbote/tabula-backend/internal/platform/dbctx"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

const UploadSuccessMessage = "File uploaded and data stored successfully"

type UploadInput struct {
	Filename string
	Body     []byte
	Replace  bool
}

type UploadResult struct {
	Message  string            `json:"message"`
	Filename string            `json:"filename"`
	Rows     int               `json:"rows"`
	Columns  []string          `json:"columns"`
	Schema   map[string]string `json:"schema"`
}

type AggregateQuery struct {
	Filename  string
	Column    string
	Operation string
}

type AggregateResult struct {
	Operation dataset.AggregateOp
	// Value is nil when the column holds no numeric values, otherwise an
	// exact json.Number.
	Value any
}

type FilterQuery struct {
	Filename string
	Column   string
	Value    string
	Operator string
}

type DatasetSummary struct {
	Filename   string            `json:"filename"`
	Columns    []string          `json:"columns"`
	Schema     map[string]string `json:"schema"`
	RowCount   int               `json:"row_count"`
	ArchiveKey string            `json:"archive_key,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type DatasetService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	Aggregate(ctx context.Context, q AggregateQuery) (*AggregateResult, error)
	Filter(ctx context.Context, q FilterQuery) ([]types.Document, error)
	List(ctx context.Context) ([]DatasetSummary, error)
	Schema(ctx context.Context, filename string) (*DatasetSummary, error)
}

type DatasetServiceOptions struct {
	MaxUploadBytes int64
	Cache          AggregateCache
	Archiver       Archiver
}

type datasetService struct {
	db             *gorm.DB
	log            *logger.Logger
	metadataRepo   repos.MetadataRepo
	recordRepo     repos.RecordRepo
	cache          AggregateCache
	archiver       Archiver
	maxUploadBytes int64
}

func NewDatasetService(
	db *gorm.DB,
	log *logger.Logger,
	metadataRepo repos.MetadataRepo,
	recordRepo repos.RecordRepo,
	opts DatasetServiceOptions,
) DatasetService {
	cache := opts.Cache
	if cache == nil {
		cache = NoopAggregateCache()
	}
	return &datasetService{
		db:             db,
		log:            log.With("service", "DatasetService"),
		metadataRepo:   metadataRepo,
		recordRepo:     recordRepo,
		cache:          cache,
		archiver:       opts.Archiver,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (s *datasetService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		return nil, apierr.BadRequest("no_selected_file", "No selected file")
	}
	if !ingest.AllowedExtension(filename) {
		return nil, apierr.BadRequest("file_type_not_allowed", "File type not allowed")
	}
	if s.maxUploadBytes > 0 && int64(len(in.Body)) > s.maxUploadBytes {
		return nil, apierr.TooLarge("file_too_large", "File exceeds the %d byte upload limit", s.maxUploadBytes)
	}

	table, err := ingest.Parse(filename, bytes.NewReader(in.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", filename, err)
	}
	schemaJSON, err := json.Marshal(table.Schema)
	if err != nil {
		return nil, err
	}
	columnsJSON, err := json.Marshal(table.Columns)
	if err != nil {
		return nil, err
	}
	rowsJSON, err := json.Marshal(table.Rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}

	var (
		archiveKey  string
		replacedKey string
		replaced    bool
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := s.metadataRepo.GetByFilename(dbc, filename)
		if err != nil {
			return fmt.Errorf("lookup dataset: %w", err)
		}
		if existing != nil {
			if !in.Replace {
				return apierr.Conflict("dataset_exists", "File '%s' has already been uploaded", filename)
			}
			if _, err := s.metadataRepo.DeleteByFilename(dbc, filename); err != nil {
				return fmt.Errorf("replace metadata: %w", err)
			}
			if _, err := s.recordRepo.DeleteByFilename(dbc, filename); err != nil {
				return fmt.Errorf("replace records: %w", err)
			}
			replacedKey = existing.ArchiveKey
			replaced = true
		}

		if s.archiver != nil {
			key, err := s.archiver.Archive(ctx, filename, in.Body)
			if err != nil {
				return err
			}
			archiveKey = key
		}

		meta := &types.DataSetMetadata{
			Filename:   filename,
			Schema:     datatypes.JSON(schemaJSON),
			Columns:    datatypes.JSON(columnsJSON),
			RowCount:   len(table.Rows),
			ArchiveKey: archiveKey,
		}
		if err := s.metadataRepo.Create(dbc, meta); err != nil {
			if db.IsUniqueViolation(err) {
				return apierr.Conflict("dataset_exists", "File '%s' has already been uploaded", filename)
			}
			return fmt.Errorf("store metadata: %w", err)
		}
		if err := s.recordRepo.Create(dbc, &types.DataRecord{
			Filename: filename,
			Data:     datatypes.JSON(rowsJSON),
		}); err != nil {
			return fmt.Errorf("store records: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if archiveKey != "" {
			if err := s.archiver.Remove(context.WithoutCancel(ctx), archiveKey); err != nil {
				s.log.Warn("Failed to remove orphaned archive", "key", archiveKey, "error", err)
			}
		}
		return nil, txErr
	}

	if replacedKey != "" && s.archiver != nil {
		if err := s.archiver.Remove(ctx, replacedKey); err != nil {
			s.log.Warn("Failed to remove replaced archive", "key", replacedKey, "error", err)
		}
	}
	if err := s.cache.Invalidate(ctx, filename); err != nil {
		s.log.Warn("Failed to invalidate aggregate cache", "filename", filename, "error", err)
	}

	s.log.Info("Dataset stored", "filename", filename, "rows", len(table.Rows), "columns", len(table.Columns), "replaced", replaced)
	return &UploadResult{
		Message:  UploadSuccessMessage,
		Filename: filename,
		Rows:     len(table.Rows),
		Columns:  table.Columns,
		Schema:   table.Schema,
	}, nil
}

func (s *datasetService) Aggregate(ctx context.Context, q AggregateQuery) (*AggregateResult, error) {
	op, ok := dataset.ParseAggregateOp(q.Operation)
	if !ok {
		return nil, apierr.BadRequest("invalid_operation", "Invalid operation '%s'", q.Operation)
	}
	if q.Filename == "" || q.Column == "" {
		return nil, apierr.BadRequest("missing_parameters", "Missing 'filename' or 'column' parameter")
	}
	if _, err := s.requireColumn(ctx, q.Filename, q.Column); err != nil {
		return nil, err
	}

	value, hit, err := s.cache.Get(ctx, q.Filename, q.Column, op)
	if err != nil {
		s.log.Warn("Aggregate cache read failed", "filename", q.Filename, "error", err)
	}
	if !hit {
		value, err = s.recordRepo.Aggregate(dbctx.Context{Ctx: ctx}, q.Filename, q.Column, op)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, q.Filename, q.Column, op, value); err != nil {
			s.log.Warn("Aggregate cache write failed", "filename", q.Filename, "error", err)
		}
	}

	res := &AggregateResult{Operation: op}
	if value != "" {
		res.Value = value
	}
	return res, nil
}

func (s *datasetService) Filter(ctx context.Context, q FilterQuery) ([]types.Document, error) {
	if q.Filename == "" || q.Column == "" || q.Value == "" {
		return nil, apierr.BadRequest("missing_parameters", "Missing 'filename', 'column', or 'value' parameter")
	}
	cmp, ok := dataset.ParseComparison(q.Operator)
	if !ok {
		return nil, apierr.BadRequest("invalid_operator", "Invalid operator '%s'", q.Operator)
	}
	value, ok := filterNumber(q.Value)
	if !ok {
		return nil, apierr.BadRequest("invalid_value", "Value '%s' is not numeric", q.Value)
	}
	if _, err := s.requireColumn(ctx, q.Filename, q.Column); err != nil {
		return nil, err
	}

	rows, err := s.recordRepo.Filter(dbctx.Context{Ctx: ctx}, q.Filename, q.Column, cmp, value)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("no_data", "No data found for column '%s' %s %s in filename '%s'", q.Column, cmp, q.Value, q.Filename)
	}
	return rows, nil
}

func (s *datasetService) List(ctx context.Context) ([]DatasetSummary, error) {
	metas, err := s.metadataRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	out := make([]DatasetSummary, 0, len(metas))
	for _, m := range metas {
		summary, err := summarize(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

func (s *datasetService) Schema(ctx context.Context, filename string) (*DatasetSummary, error) {
	if filename == "" {
		return nil, apierr.BadRequest("missing_parameters", "Missing 'filename' parameter")
	}
	meta, err := s.lookup(ctx, filename)
	if err != nil {
		return nil, err
	}
	return summarize(meta)
}

func (s *datasetService) lookup(ctx context.Context, filename string) (*types.DataSetMetadata, error) {
	meta, err := s.metadataRepo.GetByFilename(dbctx.Context{Ctx: ctx}, filename)
	if err != nil {
		return nil, fmt.Errorf("lookup dataset: %w", err)
	}
	if meta == nil {
		return nil, apierr.NotFound("file_not_found", "File not found")
	}
	return meta, nil
}

// filterNumber canonicalizes a filter value. Integers keep every digit;
// anything else is reformatted through float64 so forms like 0x1p4 reach
// the database as decimals.
func filterNumber(raw string) (json.Number, bool) {
	raw = strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return json.Number(strconv.FormatInt(i, 10)), true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), true
}

// requireColumn loads the dataset and checks column against its schema.
func (s *datasetService) requireColumn(ctx context.Context, filename, column string) (*types.DataSetMetadata, error) {
	meta, err := s.lookup(ctx, filename)
	if err != nil {
		return nil, err
	}
	ok, err := meta.HasColumn(column)
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if !ok {
		return nil, apierr.BadRequest("column_not_found", "Column '%s' not found in schema", column)
	}
	if err := dataset.ValidateColumnName(column); err != nil {
		if errors.Is(err, dataset.ErrInvalidColumnName) {
			return nil, apierr.BadRequest("invalid_column", "Column '%s' cannot be queried: %v", column, err)
		}
		return nil, err
	}
	return meta, nil
}

func summarize(m *types.DataSetMetadata) (*DatasetSummary, error) {
	columns, err := m.ColumnNames()
	if err != nil {
		return nil, fmt.Errorf("decode columns of %q: %w", m.Filename, err)
	}
	schema, err := m.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("decode schema of %q: %w", m.Filename, err)
	}
	if columns == nil {
		columns = []string{}
	}
	return &DatasetSummary{
		Filename:   m.Filename,
		Columns:    columns,
		Schema:     schema,
		RowCount:   m.RowCount,
		ArchiveKey: m.ArchiveKey,
		CreatedAt:  m.CreatedAt,
	}, nil
}
