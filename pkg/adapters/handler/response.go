package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
)

const (
	codeInternal   = "INTERNAL_ERROR"
	maxRequestBody = 1 << 20
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code domain.Code) int {
	switch code {
	case domain.CodeInvalidRequest,
		domain.CodeInvalidURL,
		domain.CodeInvalidEmail,
		domain.CodeInvalidLinkID,
		domain.CodeInvalidUserID,
		domain.CodeInvalidName:
		return http.StatusBadRequest
	case domain.CodeInvalidCredentials, domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeLinkNotFound, domain.CodeUserNotFound:
		return http.StatusNotFound
	case domain.CodeDuplicateEmail, domain.CodeLinkIDTaken:
		return http.StatusConflict
	case domain.CodeLinkExpired:
		return http.StatusGone
	case domain.CodeIDGenerationExhausted:
		return http.StatusServiceUnavailable
	case domain.CodeUserIDTaken:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorWriter turns errors into error envelopes. Unclassified failures are
// logged and, in production, reported without their detail.
type errorWriter struct {
	logger       *zap.Logger
	hideInternal bool
}

func (e errorWriter) respond(w http.ResponseWriter, r *http.Request, err error) {
	code, ok := domain.CodeOf(err)
	status := http.StatusInternalServerError
	if ok {
		status = StatusFor(code)
	}

	if status < http.StatusInternalServerError {
		respondJSON(w, status, envelope{Error: string(code), Message: err.Error()})
		return
	}

	e.logger.Error("request failed",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)

	body := envelope{Error: string(code), Message: err.Error()}
	if status == http.StatusInternalServerError {
		body.Error = codeInternal
		if e.hideInternal {
			body.Message = "internal server error"
		}
	}
	respondJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.Wrap(domain.CodeInvalidRequest, err, "invalid request body")
	}
	return nil
}
