package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/shortlinks/pkg/config"
	"github.com/wadjakorntonsri/shortlinks/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlinks/pkg/ports"
)

const (
	stateCookie     = "oauthstate"
	googleUserInfo  = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultTokenTTL = 24 * time.Hour
)

type AuthHandler struct {
	auth          ports.AuthService
	oauthConfig   *oauth2.Config
	userInfoURL   string
	frontendURL   string
	allowedEmails []string
	tokenTTL      time.Duration
	isProduction  bool
	errs          errorWriter
	logger        *zap.Logger
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// LoginRequest payload. Password is accepted but not checked.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email.String(),
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func NewAuthHandler(cfg *config.Config, auth ports.AuthService, errs errorWriter, logger *zap.Logger) *AuthHandler {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthHandler{
		auth: auth,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:   googleUserInfo,
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		tokenTTL:      ttl,
		isProduction:  cfg.IsProduction(),
		errs:          errs,
		logger:        logger.With(zap.String("component", "AuthHandler")),
	}
}

// Login exchanges a registered email for a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.respond(w, r, err)
		return
	}

	token, user, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	respondData(w, http.StatusOK, AuthResponse{Token: token, User: toUserResponse(user)})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.respond(w, r, err)
		return
	}

	token, user, err := h.auth.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, AuthResponse{Token: token, User: toUserResponse(user)})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	user, err := h.auth.Profile(r.Context(), identity.UserID)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	respondData(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errs.respond(w, r, err)
		return
	}

	user, err := h.auth.UpdateName(r.Context(), identity.UserID, req.Name)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	respondData(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(stateCookie)
	if err != nil {
		h.logger.Warn("callback without oauth state cookie", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		h.errs.respond(w, r, domain.Errorf(domain.CodeInvalidRequest, "invalid oauth state"))
		return
	}

	googleUser, err := h.fetchGoogleUser(r)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	if !googleUser.VerifiedEmail {
		h.logger.Warn("google email not verified", zap.String("email", googleUser.Email))
		h.errs.respond(w, r, domain.Errorf(domain.CodeForbidden, "access denied: google email is not verified"))
		return
	}

	if !h.emailAllowed(googleUser.Email) {
		h.logger.Warn("email not in allowlist", zap.String("email", googleUser.Email))
		h.errs.respond(w, r, domain.Errorf(domain.CodeForbidden, "access denied: your email is not in the allowlist"))
		return
	}

	token, user, err := h.auth.SignInWithEmail(r.Context(), googleUser.Email, googleUser.Name)
	if err != nil {
		h.errs.respond(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		Expires:  time.Now().Add(h.tokenTTL),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("google sign-in", zap.String("user_id", user.ID.String()))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchGoogleUser(r *http.Request) (GoogleUser, error) {
	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		return GoogleUser{}, domain.Wrap(domain.CodeUnauthorized, err, "code exchange failed")
	}

	resp, err := h.oauthConfig.Client(r.Context(), token).Get(h.userInfoURL)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleUser{}, fmt.Errorf("get user info: status %d", resp.StatusCode)
	}

	var googleUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return GoogleUser{}, fmt.Errorf("decode user info: %w", err)
	}
	return googleUser, nil
}

func (h *AuthHandler) emailAllowed(email string) bool {
	if len(h.allowedEmails) == 0 {
		return true
	}
	return slices.Contains(h.allowedEmails, strings.ToLower(strings.TrimSpace(email)))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth state: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
