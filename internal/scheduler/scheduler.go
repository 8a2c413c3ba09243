// Package scheduler runs sequence presets on a cron schedule, per spec
// §6.1. It is a thin wrapper over robfig/cron/v3, grounded on the
// teacher's scheduler service: named entries backed by a standard 5-field
// cron expression, logged start/finish, run errors logged rather than
// panicking the scheduler goroutine.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ternarybob/arbor"
)

// RunFunc executes one scheduled firing of a named entry.
type RunFunc func(ctx context.Context) error

// Scheduler owns a set of named cron entries, each driving one sequence
// preset or config run.
type Scheduler struct {
	cron   *cron.Cron
	logger arbor.ILogger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New builds a scheduler using cron's standard 5-field parser (no seconds
// field), matching the `schedule` string on a SequenceConfig.
func New(logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds or replaces the named entry's cron schedule and run
// function. Re-registering a name removes its previous entry first.
func (s *Scheduler) Register(name, expr string, run RunFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	id, err := s.cron.AddFunc(expr, func() {
		s.logger.Info().Str("schedule_entry", name).Msg("scheduled sequence starting")
		if err := run(context.Background()); err != nil {
			s.logger.Error().Err(err).Str("schedule_entry", name).Msg("scheduled sequence run failed")
			return
		}
		s.logger.Info().Str("schedule_entry", name).Msg("scheduled sequence finished")
	})
	if err != nil {
		return fmt.Errorf("register schedule %q (%s): %w", name, expr, err)
	}
	s.entries[name] = id
	return nil
}

// Unregister removes a previously registered entry, if any.
func (s *Scheduler) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Names lists every currently registered entry name.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Start begins firing registered entries in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and blocks until any in-flight entry finishes.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
