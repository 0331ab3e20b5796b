package app

import (
	"net/http"
	"time"
)

// registerHTTP mounts every route of the server on mux. Ordering is not
// significant; ServeMux resolves by specificity.
func (a *App) registerHTTP(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.ReadinessRequireDB && !a.dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if a.dbEnabled && a.dbPool != nil {
			if err := PingDB(r.Context(), a.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				a.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", a.metrics.Handler())

	// Public auth surface: register, login, refresh.
	a.auth.Register(mux)

	// Guarded resources.
	a.tasks.Register(mux, a.guard)
	a.knowledgebase.Register(mux, a.guard)
	a.users.Register(mux, a.guard)
	a.notifications.Register(mux, a.guard)
	a.meta.Register(mux, a.guard)

	// Uploaded assets (profile images).
	uploadDir := nonEmpty(a.cfg.UploadDir, "uploads")
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	// Change feed.
	mux.HandleFunc("GET /ws", a.ws.HandleWS)
}
