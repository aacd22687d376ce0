package app

import (
	httpH "github.com/yungbote/tabula-backend/internal/http/handlers"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	Dataset *httpH.DatasetHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(),
		Auth:    httpH.NewAuthHandler(services.Auth),
		Dataset: httpH.NewDatasetHandler(log, services.Dataset, cfg.MaxUploadBytes),
	}
}
