// Package authapi exposes registration, login, and token refresh over HTTP.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"

	"opsboard/cmd/identity"
	"opsboard/cmd/internal/auth/session"
)

// Handler serves the authentication routes.
type Handler struct {
	svc *session.Service
	log *slog.Logger
}

// NewHandler constructs the auth handler.
func NewHandler(svc *session.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Register attaches the auth routes to mux. Login is reachable under both
// prefixes for client compatibility.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /users/login", h.handleLogin)
	mux.HandleFunc("POST /users/refresh", h.handleRefresh)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, access, err := h.svc.Register(r.Context(), session.RegisterInput{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case identity.IsInvalidInput(err):
			writeMessage(w, http.StatusBadRequest, "All fields are required")
		case identity.IsConflict(err):
			writeMessage(w, http.StatusBadRequest, "Email already registered")
		default:
			h.log.Error("auth.register", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Token: access, User: toUserPayload(user)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.log.Error("auth.login", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:      "Login successful",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         toUserPayload(res.User),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeMessage(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	access, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidRefreshToken):
			writeMessage(w, http.StatusForbidden, "Invalid refresh token")
		case errors.Is(err, session.ErrExpiredRefreshToken):
			writeMessage(w, http.StatusForbidden, "Refresh token expired")
		default:
			h.log.Error("auth.refresh", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}
