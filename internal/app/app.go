package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/data/db"
	"github.com/yungbote/tabula-backend/internal/http"
	"github.com/yungbote/tabula-backend/internal/observability"
	"github.com/yungbote/tabula-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Server   *http.Server

	database     *db.PostgresService
	otelShutdown func(context.Context) error
}

// New loads Config from the environment and wires the app.
func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if cfg.UsesDefaultJWTSecret() {
		log.Warn("JWT_SECRET_KEY is unset; using the built-in default secret")
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.OtelConfig())

	database, err := openDatabase(log, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.AutoMigrateAll(); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := database.DB()

	reposet := wireRepos(theDB, log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		_ = clients.Close()
		_ = database.Close()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Server:       server,
		database:     database,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
	if err := a.Server.Run(ctx, a.Cfg.Addr(), a.Cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.Log.Info("HTTP server stopped")
	return nil
}

// Close releases clients, the tracer provider, and the database.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Clients.Close() })
	if a.otelShutdown != nil {
		g.Go(func() error { return a.otelShutdown(gctx) })
	}
	err := g.Wait()
	if a.database != nil {
		err = errors.Join(err, a.database.Close())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return err
}

// Migrate creates or updates the schema and exits.
func Migrate(log *logger.Logger, cfg Config) error {
	database, err := openDatabase(log, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.AutoMigrateAll(); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info("Migrations applied", "driver", database.Driver())
	return nil
}

func openDatabase(log *logger.Logger, cfg Config) (*db.PostgresService, error) {
	database, err := db.NewPostgresService(log, cfg.DBConfig())
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return database, nil
}
