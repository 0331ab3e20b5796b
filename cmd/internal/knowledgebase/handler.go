package knowledgebase

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"opsboard/cmd/internal/realtime"
	"opsboard/cmd/internal/web"
	v1 "opsboard/shared/contracts/changefeed/v1"
)

// Handler serves the /knowledgebase routes.
type Handler struct {
	store Store
	feed  realtime.Feed
	log   *slog.Logger
}

// NewHandler constructs the knowledgebase handler.
func NewHandler(store Store, feed realtime.Feed, log *slog.Logger) *Handler {
	if feed == nil {
		feed = realtime.NopFeed{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, feed: feed, log: log}
}

// Register attaches the knowledgebase routes to mux, wrapped by guard.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /knowledgebase", guard(http.HandlerFunc(h.handleListBatch)))
	mux.Handle("GET /knowledgebase/total", guard(http.HandlerFunc(h.handleTotal)))
	mux.Handle("POST /knowledgebase", guard(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PATCH /knowledgebase/{id}", guard(http.HandlerFunc(h.handlePatch)))
	mux.Handle("PUT /knowledgebase/{id}", guard(http.HandlerFunc(h.handleReplace)))
	mux.Handle("DELETE /knowledgebase/{id}", guard(http.HandlerFunc(h.handleDelete)))
}

type articleBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type articlePatchBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// handleListBatch serves react-admin style pagination: ?_start&_limit with
// the total row count in the X-Total-Count header.
func (h *Handler) handleListBatch(w http.ResponseWriter, r *http.Request) {
	start := queryInt(r, "_start", 0)
	limit := queryInt(r, "_limit", DefaultLimit)
	start, limit = ClampPage(start, limit)

	rows, err := h.store.ListBatch(r.Context(), start, limit)
	if err != nil {
		h.log.Error("knowledgebase.list", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while fetching articles")
		return
	}

	total, err := h.store.Count(r.Context())
	if err != nil {
		h.log.Error("knowledgebase.count", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while counting articles")
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	web.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Count(r.Context())
	if err != nil {
		h.log.Error("knowledgebase.total", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error while counting articles")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]int64{"total": total})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body articleBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		web.WriteError(w, http.StatusBadRequest, "Title is required")
		return
	}

	a, err := h.store.Create(r.Context(), CreateInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.log.Error("knowledgebase.create", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.publishRecord(v1.TypeKBCreated, a)
	web.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var body articlePatchBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	a, err := h.store.Patch(r.Context(), id, Patch{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.writeStoreErr(w, "knowledgebase.patch", err)
		return
	}

	h.publishRecord(v1.TypeKBUpdated, a)
	web.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var body articleBody
	if err := web.DecodeJSON(w, r, &body); err != nil {
		web.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		web.WriteError(w, http.StatusBadRequest, "Title is required")
		return
	}

	a, err := h.store.Replace(r.Context(), id, CreateInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.writeStoreErr(w, "knowledgebase.replace", err)
		return
	}

	h.publishRecord(v1.TypeKBUpdated, a)
	web.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreErr(w, "knowledgebase.delete", err)
		return
	}

	h.feed.Publish(v1.TypeKBDeleted, v1.DeletedPayload{ID: id})
	web.WriteJSON(w, http.StatusOK, map[string]any{"message": "Article deleted", "id": id})
}

func (h *Handler) writeStoreErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		web.WriteError(w, http.StatusNotFound, "Article not found")
		return
	}
	h.log.Error(op, "error", err)
	web.WriteError(w, http.StatusInternalServerError, "Database error")
}

func (h *Handler) publishRecord(eventType string, a Article) {
	raw, err := json.Marshal(a)
	if err != nil {
		h.log.Error("knowledgebase.publish", "error", err)
		return
	}
	h.feed.Publish(eventType, v1.RecordPayload{Record: raw})
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
