package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/data/repos/dataset"
	"github.com/yungbote/tabula-backend/internal/data/repos/user"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type MetadataRepo = dataset.MetadataRepo
type RecordRepo = dataset.RecordRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewMetadataRepo(db *gorm.DB, baseLog *logger.Logger) MetadataRepo {
	return dataset.NewMetadataRepo(db, baseLog)
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return dataset.NewRecordRepo(db, baseLog)
}
