package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/config"
)

func TestNew(t *testing.T) {
	urls := map[string]string{
		"memory": MemoryDatabaseURL,
		"sqlite": fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}

	for name, dbURL := range urls {
		t.Run(name, func(t *testing.T) {
			cfg := &config.Config{DatabaseURL: dbURL, JWTSecret: "s", LinkTTLDays: 30}
			app, err := New(context.Background(), cfg, zap.NewNop())
			require.NoError(t, err)
			defer app.Close()

			rr := httptest.NewRecorder()
			app.Router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))
			assert.Equal(t, http.StatusOK, rr.Code)

			assert.NotNil(t, app.CleanupScheduler())
		})
	}
}

func TestNewFailsOnUnreachableStore(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "file:/nonexistent-dir/sub/db.sqlite", JWTSecret: "s"}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
