package timer

import (
	"context"
	"fmt"
	"math"

	"tictask/backend/internal/model"
)

// Rescale maps state onto newCfg. An idle timer simply takes the new full
// duration; otherwise the remaining fraction of the current interval is kept.
// Nothing changes when the interval's duration is the same in both configs.
func Rescale(state model.TimerState, oldCfg, newCfg model.TimerConfig) model.TimerState {
	next := state.Clone()
	newDuration := newCfg.DurationFor(state.Mode, state.PomodorosCompleted)
	if state.Status == model.StatusIdle {
		next.TimeRemaining = newDuration
		return next
	}

	oldDuration := oldCfg.DurationFor(state.Mode, state.PomodorosCompleted)
	if oldDuration == newDuration {
		return next
	}
	if oldDuration <= 0 {
		next.TimeRemaining = newDuration
		return next
	}

	fraction := float64(state.TimeRemaining) / float64(oldDuration)
	remaining := int(math.Round(fraction * float64(newDuration)))
	if remaining < 0 {
		remaining = 0
	}
	if remaining > newDuration {
		remaining = newDuration
	}
	next.TimeRemaining = remaining
	return next
}

// ConfigChanged persists newCfg and rescales the in-flight interval. The
// status hint from the caller is advisory; the engine's own status decides.
func (e *Engine) ConfigChanged(ctx context.Context, newCfg model.TimerConfig, statusHint model.Status) (model.TimerState, error) {
	if err := newCfg.Validate(); err != nil {
		return e.State(), err
	}

	e.mu.Lock()
	notes, err := e.configChangedLocked(ctx, newCfg, statusHint)
	state := e.state.Clone()
	e.mu.Unlock()

	e.dispatch(ctx, notes)
	return state, err
}

func (e *Engine) configChangedLocked(ctx context.Context, newCfg model.TimerConfig, statusHint model.Status) ([]notice, error) {
	if statusHint != "" && statusHint != e.state.Status {
		e.logger.Debug().
			Str("hint", string(statusHint)).
			Str("status", string(e.state.Status)).
			Msg("config change status hint differs from engine status")
	}

	// Charge elapsed time at the old rate before the durations change.
	notes, err := e.reconcileLocked(ctx, e.options.Clock())
	if err != nil {
		return notes, err
	}

	oldCfg := e.config
	if err := e.store.PutConfig(ctx, newCfg); err != nil {
		return notes, fmt.Errorf("persist timer config: %w", err)
	}
	e.config = newCfg

	next := Rescale(e.state, oldCfg, newCfg)
	if next.Equal(e.state) {
		return notes, nil
	}
	e.logger.Info().
		Int("from", e.state.TimeRemaining).
		Int("to", next.TimeRemaining).
		Str("mode", string(next.Mode)).
		Msg("remaining time rescaled")
	return notes, e.commitLocked(ctx, next)
}
