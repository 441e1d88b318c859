package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, links ports.LinkService, auth ports.AuthService, store ports.Pinger, logger *zap.Logger) http.Handler {
	errs := errorWriter{logger: logger, hideInternal: cfg.IsProduction()}

	h := NewHTTPHandler(links, cfg.BaseURL, cfg.LinkTTLDays, errs)
	authHandler := NewAuthHandler(cfg, auth, errs, logger)
	health := NewHealthHandler(store, logger)
	mw := NewMiddleware(cfg, auth, logger)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /api/health", health.Check)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /{id}", h.Redirect)

	if cfg.GoogleEnabled() {
		mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
		mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	}
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Links are anonymous unless a token is supplied
	mux.HandleFunc("POST /api/links", mw.OptionalAuth(h.Create))

	// Protected Routes
	mux.HandleFunc("GET /api/links", mw.RequireAuth(h.List))
	mux.HandleFunc("DELETE /api/links/{id}", mw.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/auth/me", mw.RequireAuth(authHandler.Me))
	mux.HandleFunc("PATCH /api/auth/me", mw.RequireAuth(authHandler.UpdateMe))
	mux.HandleFunc("GET /api/admin/links", mw.RequireAdmin(h.ListAll))

	return mw.Wrap(mux)
}
