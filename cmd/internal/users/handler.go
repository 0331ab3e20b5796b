// Package users exposes the account administration routes: list, create,
// patch, and delete beyond what the auth flow itself needs.
package users

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"opsboard/cmd/identity"
	"opsboard/cmd/internal/realtime"
	"opsboard/cmd/internal/web"
	v1 "opsboard/shared/contracts/changefeed/v1"
)

// Pagination bounds for the batch list.
const (
	maxLimit     = 1000
	defaultLimit = 1000
)

// Handler serves the /users administration routes.
type Handler struct {
	store     identity.Store
	feed      realtime.Feed
	log       *slog.Logger
	uploadDir string
}

// NewHandler constructs the users handler. uploadDir is where profile
// images land on disk; empty selects the default "uploads/profile".
func NewHandler(store identity.Store, feed realtime.Feed, log *slog.Logger, uploadDir string) *Handler {
	if feed == nil {
		feed = realtime.NopFeed{}
	}
	if log == nil {
		log = slog.Default()
	}
	if uploadDir == "" {
		uploadDir = "uploads/profile"
	}
	return &Handler{store: store, feed: feed, log: log, uploadDir: uploadDir}
}

// Register attaches the user routes to mux, wrapped by guard.
// Login and refresh live in the auth handler, not here.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /users", guard(http.HandlerFunc(h.handleList)))
	mux.Handle("GET /users/total", guard(http.HandlerFunc(h.handleTotal)))
	mux.Handle("GET /users/{id}", guard(http.HandlerFunc(h.handleGet)))
	mux.Handle("POST /users", guard(http.HandlerFunc(h.handleCreate)))
	mux.Handle("POST /users/upload", guard(http.HandlerFunc(h.handleUpload)))
	mux.Handle("PATCH /users/{id}", guard(http.HandlerFunc(h.handlePatch)))
	mux.Handle("DELETE /users/{id}", guard(http.HandlerFunc(h.handleDelete)))
}

// userPayload is the safe wire shape of an account.
type userPayload struct {
	ID           int64     `json:"id"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	RoleID       *int64    `json:"role_id"`
	PositionID   *int64    `json:"position_id"`
	Status       string    `json:"status"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPayload(u identity.User) userPayload {
	return userPayload{
		ID:           u.ID,
		Firstname:    u.Firstname,
		Lastname:     u.Lastname,
		Email:        u.Email,
		RoleID:       u.RoleID,
		PositionID:   u.PositionID,
		Status:       u.Status,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}

type createBody struct {
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RoleID     *int64 `json:"role_id"`
	PositionID *int64 `json:"position_id"`
}

type patchBody struct {
	Firstname  *string `json:"firstname"`
	Lastname   *string `json:"lastname"`
	RoleID     *int64  `json:"role_id"`
	PositionID *int64  `json:"position_id"`
	Status     *string `json:"status"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	start := queryInt(r, "_start", 0)
	limit := queryInt(r, "_limit", defaultLimit)
	if start < 0 {
		start = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := h.store.List(r.Context(), start, limit)
	if err != nil {
		h.log.Error("users.list", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while fetching users")
		return
	}

	total, err := h.store.Count(r.Context())
	if err != nil {
		h.log.Error("users.count", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while counting users")
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	web.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Count(r.Context())
	if err != nil {
		h.log.Error("users.total", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while counting users")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]int64{"total": total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	u, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.writeStoreErr(w, "users.get", err)
		return
	}
	web.WriteJSON(w, http.StatusOK, toPayload(u))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	body.Firstname = strings.TrimSpace(body.Firstname)
	body.Lastname = strings.TrimSpace(body.Lastname)
	body.Email = strings.TrimSpace(body.Email)
	if body.Firstname == "" || body.Lastname == "" || body.Email == "" || body.Password == "" {
		web.WriteError(w, http.StatusBadRequest, "firstname, lastname, email and password are required")
		return
	}

	hash, err := identity.HashPassword(body.Password)
	if err != nil {
		h.log.Error("users.create.hash", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	u, err := h.store.Create(r.Context(), identity.CreateInput{
		Firstname:    body.Firstname,
		Lastname:     body.Lastname,
		Email:        body.Email,
		PasswordHash: hash,
		RoleID:       body.RoleID,
		PositionID:   body.PositionID,
	})
	if err != nil {
		if identity.IsConflict(err) {
			web.WriteError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.writeStoreErr(w, "users.create", err)
		return
	}

	web.WriteJSON(w, http.StatusCreated, toPayload(u))
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var body patchBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.store.Patch(r.Context(), id, identity.Patch{
		Firstname:  body.Firstname,
		Lastname:   body.Lastname,
		RoleID:     body.RoleID,
		PositionID: body.PositionID,
		Status:     body.Status,
	})
	if err != nil {
		h.writeStoreErr(w, "users.patch", err)
		return
	}

	payload := toPayload(u)
	if raw, err := json.Marshal(payload); err == nil {
		h.feed.Publish(v1.TypeUserUpdated, v1.RecordPayload{Record: raw})
	}
	web.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreErr(w, "users.delete", err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"message": "User deleted", "id": id})
}

func (h *Handler) writeStoreErr(w http.ResponseWriter, op string, err error) {
	if identity.IsNotFound(err) {
		web.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	h.log.Error(op, "error", err)
	web.WriteError(w, http.StatusInternalServerError, "Database error")
}

func queryInt(r *http.Request, key string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
