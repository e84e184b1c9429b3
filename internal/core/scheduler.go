package core

// scheduler.go runs background maintenance for the Service.
//
// The session janitor discards correction sessions nobody has touched for
// SessionIdleTimeout. Discarding is the same as closing without saving: the
// document's status is recomputed from its saved grid.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// JanitorConfig configures the session janitor.
type JanitorConfig struct {
	Schedule string // cron spec, e.g. "@every 1m"
	TimeZone string // IANA zone for the schedule (default: UTC)
}

// StartSessionJanitor schedules idle-session sweeps and stops them when ctx
// is cancelled.
func (s *Service) StartSessionJanitor(ctx context.Context, cfg JanitorConfig) error {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	loc := time.UTC
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
		}
		loc = l
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(cfg.Schedule, func() {
		if n := s.SweepIdleSessions(); n > 0 {
			slog.Info("idle correction sessions discarded", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session janitor %q: %w", cfg.Schedule, err)
	}

	c.Start()
	slog.Info("session janitor started",
		"schedule", cfg.Schedule,
		"idle_timeout", s.cfg.SessionIdleTimeout,
	)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		slog.Info("session janitor stopped")
	}()
	return nil
}
