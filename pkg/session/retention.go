package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultRetentionAge is how long an untouched session file is kept.
const DefaultRetentionAge = 30 * 24 * time.Hour

// Sweeper deletes session files that have not been touched within the
// retention age. It only works against the file driver; the redis
// driver expires keys natively via TTL.
type Sweeper struct {
	store    *FileStore
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	entryID  cron.EntryID
}

// NewSweeper creates a retention sweeper. schedule is a standard cron
// expression; maxAge zero means DefaultRetentionAge.
func NewSweeper(store *FileStore, schedule string, maxAge time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultRetentionAge
	}

	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		schedule: schedule,
	}
}

// Start schedules the sweep.
func (s *Sweeper) Start() error {
	if s.cron != nil {
		return fmt.Errorf("sweeper is already running")
	}

	c := cron.New()
	entryID, err := c.AddFunc(s.schedule, func() {
		if _, err := s.SweepNow(context.Background()); err != nil {
			log.Error().Err(err).Msg("Session retention sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}

	s.cron = c
	s.entryID = entryID
	c.Start()

	log.Info().
		Str("schedule", s.schedule).
		Dur("max_age", s.maxAge).
		Msg("Session retention sweeper started")

	return nil
}

// Stop cancels the scheduled sweep and waits for a running one.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil

	log.Info().Msg("Session retention sweeper stopped")
}

// SweepNow deletes stale sessions immediately and returns how many were
// removed.
func (s *Sweeper) SweepNow(ctx context.Context) (int, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := time.Now()
	deleted := 0

	for _, sessionID := range sessions {
		info, err := s.store.Info(ctx, sessionID)
		if err != nil {
			log.Warn().
				Str("session_id", sessionID).
				Err(err).
				Msg("Failed to stat session during sweep")
			continue
		}

		age := now.Sub(time.UnixMilli(info.LastModified))
		if age < s.maxAge {
			continue
		}

		if err := s.store.Delete(ctx, sessionID); err != nil {
			log.Error().
				Str("session_id", sessionID).
				Err(err).
				Msg("Failed to delete stale session")
			continue
		}
		deleted++

		log.Debug().
			Str("session_id", sessionID).
			Dur("age", age).
			Msg("Stale session deleted")
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Session retention sweep completed")
	}

	return deleted, nil
}
