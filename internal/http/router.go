package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/tabula-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tabula-backend/internal/http/middleware"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	// MaxMultipartMemory caps the in-memory part of parsed multipart forms.
	MaxMultipartMemory int64

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	DatasetHandler *httpH.DatasetHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = cfg.MaxMultipartMemory
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tabula"
	}
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}

		// Data
		if cfg.DatasetHandler != nil {
			data := api.Group("/data")
			data.POST("/upload", cfg.DatasetHandler.Upload)
			data.GET("/aggregate", cfg.DatasetHandler.Aggregate)
			data.GET("/filter", cfg.DatasetHandler.Filter)
			data.GET("/datasets", cfg.DatasetHandler.List)
			data.GET("/schema", cfg.DatasetHandler.Schema)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}
		if cfg.AuthHandler != nil && cfg.AuthMiddleware != nil {
			protected.GET("/protected", cfg.AuthHandler.Protected)
		}
	}

	return r
}
