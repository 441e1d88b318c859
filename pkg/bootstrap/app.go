// Package bootstrap wires configuration, storage, services and the HTTP
// router together for the server, the CLI and the serverless entrypoint.
package bootstrap

import (
	"context"
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlinks/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/shortlinks/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shortlinks/pkg/adapters/token"
	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/idgen"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/services"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
	"github.com/wadjakorntonsri/shortlinks/pkg/scheduler"
)

// MemoryDatabaseURL selects the in-process store. Nothing survives a restart.
const MemoryDatabaseURL = "memory"

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	LinkRepo ports.LinkRepository
	UserRepo ports.UserRepository
	Links    *services.LinkService
	Auth     *services.AuthService
	Router   http.Handler
	db       *sql.DB
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	var store ports.Pinger
	if cfg.DatabaseURL == MemoryDatabaseURL {
		logger.Warn("using in-memory store")
		app.LinkRepo = memory.NewLinkRepository()
		app.UserRepo = memory.NewUserRepository()
	} else {
		db, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.LinkRepo = sqlite.NewLinkRepository(db)
		app.UserRepo = sqlite.NewUserRepository(db)
		store = db
	}

	ids := idgen.New()
	tokens := token.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL)

	app.Links = services.NewLinkService(app.LinkRepo, ids, logger)
	app.Auth = services.NewAuthService(app.UserRepo, tokens, ids, logger)
	app.Router = handler.NewRouter(cfg, app.Links, app.Auth, store, logger)

	return app, nil
}

// CleanupScheduler returns the periodic sweep for this app's links.
func (a *App) CleanupScheduler() *scheduler.Cleanup {
	return scheduler.NewCleanup(a.Links, a.Config.LinkTTLDays, a.Config.CleanupInterval, a.Logger)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
