package handler

import (
	"context"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/metrics"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

const authCookie = "auth_token"

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "request_id"
)

// IdentityFrom returns the authenticated caller, if any.
func IdentityFrom(ctx context.Context) (ports.Identity, bool) {
	id, ok := ctx.Value(identityKey).(ports.Identity)
	return id, ok
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type Middleware struct {
	auth        ports.AuthService
	logger      *zap.Logger
	errs        errorWriter
	adminEmails []string
	corsOrigins []string
}

func NewMiddleware(cfg *config.Config, auth ports.AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		auth:        auth,
		logger:      logger,
		errs:        errorWriter{logger: logger, hideInternal: cfg.IsProduction()},
		adminEmails: cfg.AdminEmails,
		corsOrigins: cfg.CORSAllowedOrigins,
	}
}

// RequireAuth verifies the bearer token or auth cookie and rejects the
// request when neither carries a valid token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := tokenFromRequest(r)
		if token == "" {
			m.errs.respond(w, r, domain.ErrUnauthorized)
			return
		}

		identity, err := m.auth.Verify(r.Context(), token)
		if err != nil {
			m.errs.respond(w, r, err)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

// OptionalAuth lets anonymous requests through but still rejects credentials
// that are present and invalid, including a non-Bearer Authorization header.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, present := tokenFromRequest(r); !present {
			next(w, r)
			return
		}
		m.RequireAuth(next)(w, r)
	}
}

// RequireAdmin allows only callers whose email is listed in ADMIN_EMAILS.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFrom(r.Context())
		if !slices.Contains(m.adminEmails, strings.ToLower(identity.Email.String())) {
			m.errs.respond(w, r, domain.ErrForbidden)
			return
		}
		next(w, r)
	})
}

// tokenFromRequest reads the bearer token, falling back to the auth cookie.
// present reports whether the caller sent credentials at all; a malformed
// Authorization header counts as present with an empty token.
func tokenFromRequest(r *http.Request) (token string, present bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value), true
		}
		return "", true
	}
	if cookie, err := r.Cookie(authCookie); err == nil {
		return cookie.Value, true
	}
	return "", false
}

// RequestID tags the request with an id, reusing one sent by a proxy.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.logger.Info("HTTP request",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// Recovery converts a panic into a 500 and logs the stack.
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error("panic recovered",
					zap.String("request_id", RequestIDFrom(r.Context())),
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				respondJSON(w, http.StatusInternalServerError, envelope{Error: codeInternal, Message: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Metrics records request count and latency per matched route pattern. The
// mux sets the pattern on the request it receives, so every middleware
// between here and the mux must pass r through unchanged.
func (m *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTP(r.Method, route, strconv.Itoa(wrapped.status), time.Since(start))
	})
}

// CORS answers preflights and sets the allow headers for configured origins.
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && m.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) originAllowed(origin string) bool {
	origin = strings.ToLower(origin)
	return slices.Contains(m.corsOrigins, "*") || slices.Contains(m.corsOrigins, origin)
}

// Wrap applies the standard middleware stack to the mux. Recovery sits
// innermost so a panic still reaches the access log and request metrics
// as a 500.
func (m *Middleware) Wrap(mux http.Handler) http.Handler {
	return Chain(mux,
		m.RequestID,
		m.Logging,
		m.Metrics,
		m.CORS,
		m.Recovery,
	)
}

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
