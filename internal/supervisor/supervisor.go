// Package supervisor keeps a persisted running timer ticking across process
// restarts and lost tick loops.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tictask/backend/internal/model"
)

const DefaultInterval = 5 * time.Second

// Engine is the part of the timer engine the supervisor drives.
// ResumeIfRunning must load, check and re-arm atomically with respect to
// user commands.
type Engine interface {
	ResumeIfRunning(ctx context.Context) (model.TimerState, bool, error)
}

type Supervisor struct {
	engine   Engine
	interval time.Duration
	logger   zerolog.Logger
}

func New(engine Engine, interval time.Duration, logger zerolog.Logger) *Supervisor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Supervisor{
		engine:   engine,
		interval: interval,
		logger:   logger.With().Str("component", "supervisor").Logger(),
	}
}

// Run checks once immediately and then on every interval until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	s.checkAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.checkAndLog(ctx)
		}
	}
}

// Check re-arms the engine when the persisted state says running but no tick
// loop exists in this process. It reports whether it re-armed.
func (s *Supervisor) Check(ctx context.Context) (bool, error) {
	state, resumed, err := s.engine.ResumeIfRunning(ctx)
	if err != nil {
		return false, fmt.Errorf("resume running timer: %w", err)
	}
	if !resumed {
		return false, nil
	}
	s.logger.Info().
		Str("mode", string(state.Mode)).
		Int("remaining", state.TimeRemaining).
		Msg("resumed running timer")
	return true, nil
}

func (s *Supervisor) checkAndLog(ctx context.Context) {
	if _, err := s.Check(ctx); err != nil {
		s.logger.Error().Err(err).Msg("liveness check failed")
	}
}
