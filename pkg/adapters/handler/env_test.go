package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/shortlinks/pkg/adapters/token"
	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/idgen"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/services"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

type testEnv struct {
	cfg    *config.Config
	links  *services.LinkService
	auth   *services.AuthService
	router http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:      "test",
		BaseURL:     "http://sho.rt",
		JWTSecret:   "testservlet",
		TokenTTL:    time.Hour,
		LinkTTLDays: 30,
		FrontendURL: "http://localhost:3000",
		AdminEmails: []string{"root@example.com"},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	return newTestEnvWith(t, cfg, memory.NewLinkRepository(), memory.NewUserRepository())
}

func newTestEnvWith(t *testing.T, cfg *config.Config, linkRepo ports.LinkRepository, userRepo ports.UserRepository) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	ids := idgen.New()
	links := services.NewLinkService(linkRepo, ids, logger)
	auth := services.NewAuthService(userRepo, token.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL), ids, logger)

	return &testEnv{
		cfg:    cfg,
		links:  links,
		auth:   auth,
		router: NewRouter(cfg, links, auth, nil, logger),
	}
}

// register creates a user and returns its token.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	tok, _, err := e.auth.Register(context.Background(), email, "")
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) testEnvelope {
	t.Helper()

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
