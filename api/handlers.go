package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jonwraymond/bearerauth/auth"
	"github.com/jonwraymond/bearerauth/member"
	"github.com/jonwraymond/bearerauth/observe"
	"github.com/jonwraymond/bearerauth/resilience"
)

// maxLoginBody caps the login request body.
const maxLoginBody = 4 << 10

func hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "hello")
}

// IdentityResponse describes the caller.
type IdentityResponse struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

func me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		auth.UnauthorizedHandler().ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, IdentityResponse{Username: id.Principal, Authorities: id.Authorities})
}

func admin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "hello admin",
		"username": auth.PrincipalFromContext(r.Context()),
	})
}

// LoginRequest is the login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries an issued token.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type loginHandler struct {
	issuer  TokenIssuer
	members LoginService
	ttl     time.Duration
	logger  observe.Logger
}

func (h *loginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	id, err := h.members.Login(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, member.ErrInvalidCredentials), errors.Is(err, member.ErrInactive):
		auth.UnauthorizedHandler().ServeHTTP(w, r)
		return
	case errors.Is(err, resilience.ErrCircuitOpen):
		h.logger.Warn(ctx, "login rejected: member store unavailable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
		return
	case err != nil:
		h.logger.Error(ctx, "login failed", observe.F("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}

	token, err := h.issuer.Issue(id, h.ttl)
	if err != nil {
		h.logger.Error(ctx, "token issue failed", observe.F("principal", id.Principal), observe.F("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}

	h.logger.Info(ctx, "token issued", observe.F("principal", id.Principal))
	w.Header().Set(auth.AuthorizationHeader, auth.BearerPrefix+token)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.ttl.Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
