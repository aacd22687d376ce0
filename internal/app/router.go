package app

import (
	"github.com/yungbote/tabula-backend/internal/http"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:                log,
		ServiceName:        cfg.OtelServiceName,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		MaxMultipartMemory: cfg.MaxUploadBytes,
		HealthHandler:      handlers.Health,
		AuthHandler:        handlers.Auth,
		AuthMiddleware:     middleware.Auth,
		DatasetHandler:     handlers.Dataset,
	})
}
