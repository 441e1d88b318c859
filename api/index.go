package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/bootstrap"
	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		zl = zap.NewNop()
	}

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL.
	// There is no long-lived process here, so expired links are swept by the CLI or a cron job.
	app, err := bootstrap.New(context.Background(), cfg, zl)
	if err != nil {
		panic(err)
	}
	mux = app.Router
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
