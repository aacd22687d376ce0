package db

import (
	types "github.com/yungbote/tabula-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.User{},

		// Datasets
		&types.DataSetMetadata{},
		&types.DataRecord{},
	)
}
