package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/data/repos"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type Repos struct {
	User     repos.UserRepo
	Metadata repos.MetadataRepo
	Record   repos.RecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Metadata: repos.NewMetadataRepo(db, log),
		Record:   repos.NewRecordRepo(db, log),
	}
}
