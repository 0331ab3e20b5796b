// Package meta serves the combined lookup payload the frontend uses to
// populate selectors: positions, roles, and users.
package meta

import (
	"log/slog"
	"net/http"

	"opsboard/cmd/identity"
	"opsboard/cmd/internal/web"
)

// Handler serves GET /api/meta.
type Handler struct {
	users identity.Store
	log   *slog.Logger
}

// NewHandler constructs the meta handler.
func NewHandler(users identity.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{users: users, log: log}
}

// Register attaches the meta route to mux, wrapped by guard.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /api/meta", guard(http.HandlerFunc(h.handleMeta)))
}

type metaUser struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type metaResponse struct {
	Positions []identity.Lookup `json:"positions"`
	Roles     []identity.Lookup `json:"roles"`
	Users     []metaUser        `json:"users"`
}

// handleMeta sends all selector data together, saving the frontend three
// round trips.
func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	positions, err := h.users.Positions(ctx)
	if err != nil {
		h.fail(w, "meta.positions", err)
		return
	}
	roles, err := h.users.Roles(ctx)
	if err != nil {
		h.fail(w, "meta.roles", err)
		return
	}
	all, err := h.users.ListAll(ctx)
	if err != nil {
		h.fail(w, "meta.users", err)
		return
	}

	users := make([]metaUser, 0, len(all))
	for _, u := range all {
		users = append(users, metaUser{ID: u.ID, Firstname: u.Firstname, Lastname: u.Lastname})
	}

	web.WriteJSON(w, http.StatusOK, metaResponse{
		Positions: positions,
		Roles:     roles,
		Users:     users,
	})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.log.Error(op, "error", err)
	web.WriteError(w, http.StatusInternalServerError, "Database error while fetching meta data")
}
