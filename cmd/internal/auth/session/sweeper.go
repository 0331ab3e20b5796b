package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes expired refresh tokens. Rows remain valid
// for lookup until swept, so the interval only bounds table growth.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      *slog.Logger
}

// NewSweeper constructs a sweeper. An interval <= 0 disables it.
func NewSweeper(svc *Service, interval time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{svc: svc, interval: interval, log: log}
}

// Run sweeps on the configured interval until ctx is canceled.
// It returns immediately when the sweeper is disabled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.svc.SweepExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Error("session.sweep", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("session.sweep", "deleted", n)
			}
		}
	}
}
