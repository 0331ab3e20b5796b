// Package app wires the Opsboard server runtime: config, logging, metrics,
// HTTP routes, and the websocket change feed.
package app

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"opsboard/cmd/identity"
	authapi "opsboard/cmd/internal/auth/api"
	"opsboard/cmd/internal/auth/session"
	"opsboard/cmd/internal/auth/token"
	"opsboard/cmd/internal/knowledgebase"
	"opsboard/cmd/internal/meta"
	"opsboard/cmd/internal/notifications"
	"opsboard/cmd/internal/realtime"
	"opsboard/cmd/internal/tasks"
	"opsboard/cmd/internal/users"
)

// App is the Opsboard server runtime: it owns the HTTP wiring, the store
// stack, and the change-feed gateway.
type App struct {
	cfg     Config
	log     Logger
	metrics *Metrics

	dbPool    *pgxpool.Pool
	dbEnabled bool

	hub *realtime.Hub
	ws  *realtime.WSGateway

	session *session.Service
	sweeper *session.Sweeper
	guard   func(http.Handler) http.Handler

	auth          *authapi.Handler
	tasks         *tasks.Handler
	knowledgebase *knowledgebase.Handler
	users         *users.Handler
	notifications *notifications.Handler
	meta          *meta.Handler
}

// stores is the persistence stack picked once at startup.
type stores struct {
	users         identity.Store
	session       session.Store
	tasks         tasks.Store
	knowledgebase knowledgebase.Store
	notifications notifications.Store
}

// New constructs a fully wired App instance from config and logger.
// An empty OPSBOARD_DATABASE_URL selects the in-memory store stack.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	metrics := NewMetrics()

	st, dbPool, dbEnabled, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	tokenCfg, err := token.LoadConfigFromEnv()
	if err != nil {
		closePool(dbPool)
		return nil, err
	}
	tokens, err := token.NewManager(tokenCfg, log)
	if err != nil {
		closePool(dbPool)
		return nil, err
	}

	sessionSvc := session.NewService(st.users, st.session, tokens, log, metrics.LegacyMigrations)
	sweeper := session.NewSweeper(sessionSvc, cfg.RefreshSweepInterval, log)

	hub := realtime.NewHub(log, metrics.FeedEvents)
	ws := realtime.NewWSGateway(log, hub, metrics.WSAccepted, metrics.WSActive)

	guard := authapi.RequireAuth(tokens, log)

	return &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics,

		dbPool:    dbPool,
		dbEnabled: dbEnabled,

		hub: hub,
		ws:  ws,

		session: sessionSvc,
		sweeper: sweeper,
		guard:   guard,

		auth:          authapi.NewHandler(sessionSvc, log),
		tasks:         tasks.NewHandler(st.tasks, hub, log),
		knowledgebase: knowledgebase.NewHandler(st.knowledgebase, hub, log),
		users:         users.NewHandler(st.users, hub, log, filepath.Join(nonEmpty(cfg.UploadDir, "uploads"), "profile")),
		notifications: notifications.NewHandler(st.notifications, hub, log),
		meta:          meta.NewHandler(st.users, log),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	a.registerHTTP(mux)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log, a.metrics),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	go a.sweeper.Run(sweepCtx)

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	closePool(a.dbPool)
	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func nonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

// newStores decides between Postgres-backed persistence and the in-memory
// dev stack.
func newStores(ctx context.Context, cfg Config, log Logger) (stores, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return stores{
			users:         identity.NewMemoryStore(),
			session:       session.NewMemoryStore(),
			tasks:         tasks.NewMemoryStore(),
			knowledgebase: knowledgebase.NewMemoryStore(),
			notifications: notifications.NewMemoryStore(),
		}, nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return stores{}, nil, false, err
	}

	log.Info("db.enabled.postgres_store")

	userStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, nil, false, err
	}

	// Ownership model: app owns the pool lifecycle; the stores only borrow it.
	return stores{
		users:         userStore,
		session:       session.NewPostgresStore(pool),
		tasks:         tasks.NewPostgresStore(pool),
		knowledgebase: knowledgebase.NewPostgresStore(pool),
		notifications: notifications.NewPostgresStore(pool),
	}, pool, true, nil
}
