package timer

import (
	"context"
	"fmt"
	"time"

	"tictask/backend/internal/model"
	"tictask/backend/internal/recorder"
)

// reconcileLocked charges the whole seconds elapsed since lastUpdateTime
// against timeRemaining. lastUpdateTime advances by exactly the seconds
// charged, so the sub-second remainder carries into the next pass and the
// result does not depend on how many passes covered a span.
func (e *Engine) reconcileLocked(ctx context.Context, now time.Time) ([]notice, error) {
	if e.state.Status != model.StatusRunning {
		return nil, nil
	}

	nowMillis := now.UnixMilli()
	elapsed := nowMillis - e.state.LastUpdateTime
	if elapsed < 0 {
		// Wall clock moved backwards; restart the baseline instead of waiting it out.
		e.logger.Warn().Int64("skew_ms", -elapsed).Msg("clock moved backwards, rebasing countdown")
		next := e.state.Clone()
		next.LastUpdateTime = nowMillis
		return nil, e.commitLocked(ctx, next)
	}

	delta := elapsed / 1000
	if delta <= 0 {
		return nil, nil
	}

	if int64(e.state.TimeRemaining) <= delta {
		endMillis := e.state.LastUpdateTime + int64(e.state.TimeRemaining)*1000
		return e.completeLocked(ctx, nowMillis, endMillis)
	}

	next := e.state.Clone()
	next.TimeRemaining -= int(delta)
	next.LastUpdateTime += delta * 1000
	return nil, e.commitLocked(ctx, next)
}

// completeLocked runs the focus or break completion transition. The session
// is recorded before the state write; a failed write leaves the old state in
// place and the retried completion maps onto the same session ID.
func (e *Engine) completeLocked(ctx context.Context, nowMillis, endMillis int64) ([]notice, error) {
	current := e.state
	cfg := e.config
	next := current.Clone()
	next.LastUpdateTime = nowMillis

	var completion recorder.Completion
	var notes []notice
	if current.Mode == model.ModeFocus {
		// The countdown reached zero, so the full focus duration was served.
		duration := cfg.FocusDuration
		completion = recorder.Completion{
			Type:      model.SessionPomodoro,
			StartTime: endMillis - int64(duration)*1000,
			EndTime:   endMillis,
			TaskID:    current.CurrentTaskID,
		}

		completed := current.PomodorosCompleted + 1
		next.PomodorosCompleted = completed
		next.Mode = model.ModeBreak
		next.Status = model.StatusBreak
		next.TimeRemaining = cfg.BreakDuration(completed)

		if cfg.BreakKind(completed) == model.SessionLongBreak {
			notes = append(notes, notice{title: "Long Break Time!", message: "Great work! Take a long break."})
		} else {
			notes = append(notes, notice{title: "Break Time!", message: "Great work! Take a short break."})
		}
	} else {
		duration := cfg.BreakDuration(current.PomodorosCompleted)
		completion = recorder.Completion{
			Type:      cfg.BreakKind(current.PomodorosCompleted),
			StartTime: endMillis - int64(duration)*1000,
			EndTime:   endMillis,
			TaskID:    current.CurrentTaskID,
		}

		next.Status = model.StatusIdle
		next.Mode = model.ModeFocus
		next.TimeRemaining = cfg.FocusDuration
		next.CurrentTaskID = nil
		notes = append(notes, notice{title: "Break Complete", message: "Time to focus again!"})
	}

	if e.recorder != nil {
		if _, err := e.recorder.Record(ctx, completion); err != nil {
			return nil, fmt.Errorf("complete %s: %w", current.Mode, err)
		}
	}
	if err := e.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	e.stopLoopLocked()

	e.logger.Info().
		Str("completed", string(completion.Type)).
		Int("pomodoros", next.PomodorosCompleted).
		Str("status", string(next.Status)).
		Msg("interval completed")
	return notes, nil
}
