package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/tabula-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username, email string) *types.User {
	tb.Helper()
	u := &types.User{
		Username:     username,
		Email:        email,
		PasswordHash: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedDataset writes a metadata/record pair for filename.
func SeedDataset(tb testing.TB, ctx context.Context, tx *gorm.DB, filename string, schema map[string]string, columns []string, rows []map[string]any) (*types.DataSetMetadata, *types.DataRecord) {
	tb.Helper()
	meta := &types.DataSetMetadata{
		Filename: filename,
		Schema:   MustJSON(tb, schema),
		Columns:  MustJSON(tb, columns),
		RowCount: len(rows),
	}
	if err := tx.WithContext(ctx).Create(meta).Error; err != nil {
		tb.Fatalf("seed metadata: %v", err)
	}
	rec := &types.DataRecord{
		Filename: filename,
		Data:     MustJSON(tb, rows),
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed record: %v", err)
	}
	return meta, rec
}

func MustJSON(tb testing.TB, v any) datatypes.JSON {
	tb.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		tb.Fatalf("marshal: %v", err)
	}
	return datatypes.JSON(raw)
}
