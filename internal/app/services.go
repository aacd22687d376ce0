package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/platform/logger"
	"github.com/yungbote/tabula-backend/internal/services"
)

type Services struct {
	Auth    services.AuthService
	Dataset services.DatasetService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	archiver, err := services.NewArchiver(log, clients.ArchiveStore, cfg.ArchivePrefix)
	if err != nil {
		return Services{}, fmt.Errorf("init archiver: %w", err)
	}
	opts := services.DatasetServiceOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Archiver:       archiver,
	}
	if clients.AggregateCache != nil {
		opts.Cache = clients.AggregateCache
	}

	return Services{
		Auth:    services.NewAuthService(log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL()),
		Dataset: services.NewDatasetService(db, log, reposet.Metadata, reposet.Record, opts),
	}, nil
}
