package handler

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/metrics"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	baseURL string
	ttlDays int
	errs    errorWriter
}

func NewHTTPHandler(service ports.LinkService, baseURL string, ttlDays int, errs errorWriter) *HTTPHandler {
	return &HTTPHandler{service: service, baseURL: baseURL, ttlDays: ttlDays, errs: errs}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	Target string `json:"target"`
}

// LinkResponse is the public view of a link.
type LinkResponse struct {
	ID        string    `json:"id"`
	ShortURL  string    `json:"shortUrl"`
	Target    string    `json:"target"`
	Clicks    int64     `json:"clicks"`
	UserID    *string   `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *HTTPHandler) toResponse(link domain.Link) LinkResponse {
	resp := LinkResponse{
		ID:        link.ID.String(),
		ShortURL:  h.baseURL + "/" + link.ID.String(),
		Target:    link.Target.String(),
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
	}
	if link.UserID != nil {
		owner := link.UserID.String()
		resp.UserID = &owner
	}
	return resp
}

func (h *HTTPHandler) toResponses(links []domain.Link) []LinkResponse {
	out := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, h.toResponse(link))
	}
	return out
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.respond(w, r, err)
		return
	}

	var owner *domain.UserID
	if identity, ok := IdentityFrom(r.Context()); ok {
		owner = &identity.UserID
	}

	link, err := h.service.Create(r.Context(), req.Target, owner)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	metrics.RecordLinkCreated(owner != nil)
	respondData(w, http.StatusCreated, h.toResponse(link))
}

// List returns the caller's links, newest first.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	links, err := h.service.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	respondData(w, http.StatusOK, h.toResponses(links))
}

// ListAll returns every link in the store. Admin only.
func (h *HTTPHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListAll(r.Context())
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	respondData(w, http.StatusOK, h.toResponses(links))
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	if err := h.service.Delete(r.Context(), r.PathValue("id"), identity.UserID); err != nil {
		h.errs.respond(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Redirect to the link's target, counting the click.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.Resolve(r.Context(), r.PathValue("id"), h.ttlDays)
	if err != nil {
		metrics.RecordRedirect(redirectOutcome(err))
		h.errs.respond(w, r, err)
		return
	}

	metrics.RecordRedirect("found")
	http.Redirect(w, r, target, http.StatusFound)
}

func redirectOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLinkExpired):
		return "expired"
	case errors.Is(err, domain.ErrInvalidLinkID):
		return "invalid"
	default:
		return "error"
	}
}

// HealthHandler reports whether the store answers.
type HealthHandler struct {
	store  ports.Pinger
	logger *zap.Logger
}

func NewHealthHandler(store ports.Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.PingContext(r.Context()); err != nil {
			h.logger.Error("health check failed", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, envelope{Error: codeInternal, Message: "store unreachable"})
			return
		}
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}
