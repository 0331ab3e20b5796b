package notifications

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"opsboard/cmd/internal/realtime"
	"opsboard/cmd/internal/web"
	v1 "opsboard/shared/contracts/changefeed/v1"
)

// Handler serves the /notifications routes.
type Handler struct {
	store Store
	feed  realtime.Feed
	log   *slog.Logger
}

// NewHandler constructs the notifications handler.
func NewHandler(store Store, feed realtime.Feed, log *slog.Logger) *Handler {
	if feed == nil {
		feed = realtime.NopFeed{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, feed: feed, log: log}
}

// Register attaches the notification routes to mux, wrapped by guard.
// The {id} in GET /notifications/{id} is a *user* id, mirroring the
// "my notifications" lookup of the frontend.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /notifications", guard(http.HandlerFunc(h.handleListAll)))
	mux.Handle("GET /notifications/{id}", guard(http.HandlerFunc(h.handleListForUser)))
	mux.Handle("POST /notifications", guard(http.HandlerFunc(h.handleCreate)))
}

type createBody struct {
	UserID  int64  `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAll(r.Context())
	if err != nil {
		h.log.Error("notifications.list", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while fetching notifications")
		return
	}
	web.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	rows, err := h.store.ListForUser(r.Context(), userID)
	if err != nil {
		h.log.Error("notifications.list_for_user", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while fetching notifications")
		return
	}
	web.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.UserID <= 0 || strings.TrimSpace(body.Message) == "" {
		web.WriteError(w, http.StatusBadRequest, "user_id and message are required")
		return
	}

	n, err := h.store.Create(r.Context(), CreateInput{
		UserID:  body.UserID,
		Title:   body.Title,
		Message: body.Message,
	})
	if err != nil {
		h.log.Error("notifications.create", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if raw, err := json.Marshal(n); err == nil {
		h.feed.Publish(v1.TypeNotificationCreated, v1.RecordPayload{Record: raw})
	}
	web.WriteJSON(w, http.StatusCreated, n)
}
