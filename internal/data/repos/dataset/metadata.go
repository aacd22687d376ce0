package dataset

import (
	"gorm.io/gorm"

	types "github.com/yungbote/tabula-backend/internal/domain"
	"github.com/yungbote/tabula-backend/internal/platform/dbctx"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type MetadataRepo interface {
	Create(dbc dbctx.Context, meta *types.DataSetMetadata) error
	// GetByFilename returns nil, nil when no dataset has that name.
	GetByFilename(dbc dbctx.Context, filename string) (*types.DataSetMetadata, error)
	DeleteByFilename(dbc dbctx.Context, filename string) (int64, error)
	List(dbc dbctx.Context) ([]*types.DataSetMetadata, error)
}

type metadataRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetadataRepo(db *gorm.DB, baseLog *logger.Logger) MetadataRepo {
	repoLog := baseLog.With("repo", "MetadataRepo")
	return &metadataRepo{db: db, log: repoLog}
}

func (r *metadataRepo) Create(dbc dbctx.Context, meta *types.DataSetMetadata) error {
	if meta == nil {
		return nil
	}
	return dbc.Conn(r.db).Create(meta).Error
}

func (r *metadataRepo) GetByFilename(dbc dbctx.Context, filename string) (*types.DataSetMetadata, error) {
	if filename == "" {
		return nil, nil
	}
	var row types.DataSetMetadata
	if err := dbc.Conn(r.db).
		Where("filename = ?", filename).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.Filename == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *metadataRepo) DeleteByFilename(dbc dbctx.Context, filename string) (int64, error) {
	if filename == "" {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Where("filename = ?", filename).
		Delete(&types.DataSetMetadata{})
	return res.RowsAffected, res.Error
}

func (r *metadataRepo) List(dbc dbctx.Context) ([]*types.DataSetMetadata, error) {
	var results []*types.DataSetMetadata
	if err := dbc.Conn(r.db).
		Order("created_at ASC").
		Order("filename ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
