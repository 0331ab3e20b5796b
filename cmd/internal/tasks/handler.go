package tasks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"opsboard/cmd/internal/realtime"
	"opsboard/cmd/internal/web"
	v1 "opsboard/shared/contracts/changefeed/v1"
)

// Handler serves the /tasks routes.
type Handler struct {
	store Store
	feed  realtime.Feed
	log   *slog.Logger
}

// NewHandler constructs the tasks handler. feed may be realtime.NopFeed{}.
func NewHandler(store Store, feed realtime.Feed, log *slog.Logger) *Handler {
	if feed == nil {
		feed = realtime.NopFeed{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, feed: feed, log: log}
}

// Register attaches the task routes to mux, wrapped by guard.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /tasks", guard(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /tasks", guard(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PATCH /tasks/{id}", guard(http.HandlerFunc(h.handlePatch)))
	mux.Handle("PUT /tasks/{id}", guard(http.HandlerFunc(h.handleReplace)))
	mux.Handle("DELETE /tasks/{id}", guard(http.HandlerFunc(h.handleDelete)))
}

type taskBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

type taskPatchBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error("tasks.list", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}
	web.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.store.Create(r.Context(), CreateInput{
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		Status:      body.Status,
	})
	if err != nil {
		h.log.Error("tasks.create", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.publishRecord(v1.TypeTaskCreated, t)
	web.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var body taskPatchBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.store.Patch(r.Context(), id, Patch{
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		Status:      body.Status,
	})
	if err != nil {
		h.writeStoreErr(w, "tasks.patch", err)
		return
	}

	h.publishRecord(v1.TypeTaskUpdated, t)
	web.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var body taskBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.store.Replace(r.Context(), id, CreateInput{
		Title:       body.Title,
		Description: body.Description,
		Priority:    body.Priority,
		Status:      body.Status,
	})
	if err != nil {
		h.writeStoreErr(w, "tasks.replace", err)
		return
	}

	h.publishRecord(v1.TypeTaskUpdated, t)
	web.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreErr(w, "tasks.delete", err)
		return
	}

	h.feed.Publish(v1.TypeTaskDeleted, v1.DeletedPayload{ID: id})
	web.WriteJSON(w, http.StatusOK, map[string]any{"message": "Task deleted", "id": id})
}

func (h *Handler) writeStoreErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		web.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}
	h.log.Error(op, "error", err)
	web.WriteError(w, http.StatusInternalServerError, "Database error")
}

func (h *Handler) publishRecord(eventType string, t Task) {
	raw, err := json.Marshal(t)
	if err != nil {
		h.log.Error("tasks.publish", "error", err)
		return
	}
	h.feed.Publish(eventType, v1.RecordPayload{Record: raw})
}
