// Package timer owns the focus/break countdown.
//
// The Engine is the only writer of TimerState. Every command and every tick
// runs under one mutex, writes the next state to the durable store, and only
// then replaces the in-memory copy and broadcasts it. Remaining time is always
// derived from the persisted (timeRemaining, lastUpdateTime) pair, so the tick
// loop can disappear with the process and be re-armed later without drift.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tictask/backend/internal/broadcast"
	"tictask/backend/internal/model"
	"tictask/backend/internal/recorder"
	"tictask/backend/internal/repository"
)

// Store is the durable key-value collaborator for the two singletons.
type Store interface {
	GetState(ctx context.Context) (*model.TimerState, error)
	PutState(ctx context.Context, state model.TimerState) error
	GetConfig(ctx context.Context) (*model.TimerConfig, error)
	PutConfig(ctx context.Context, cfg model.TimerConfig) error
}

type Recorder interface {
	Record(ctx context.Context, completion recorder.Completion) (*model.Session, error)
}

type Publisher interface {
	Publish(event broadcast.Event)
}

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Options contains runtime settings for the Engine.
type Options struct {
	TickInterval time.Duration
	Clock        func() time.Time
	Logger       zerolog.Logger
}

type Engine struct {
	mu        sync.Mutex
	store     Store
	recorder  Recorder
	publisher Publisher
	notifier  Notifier
	options   Options
	logger    zerolog.Logger

	state  model.TimerState
	config model.TimerConfig
	loop   *tickLoop
}

type notice struct {
	title   string
	message string
}

// New loads the persisted config and state, materializing defaults on first
// activation. The tick loop is not armed here; the liveness supervisor does
// that for a state persisted as running.
func New(ctx context.Context, store Store, rec Recorder, publisher Publisher, notifier Notifier, options Options) (*Engine, error) {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	engine := &Engine{
		store:     store,
		recorder:  rec,
		publisher: publisher,
		notifier:  notifier,
		options:   options,
		logger:    options.Logger.With().Str("component", "timer").Logger(),
	}
	if err := engine.loadLocked(ctx, true); err != nil {
		return nil, err
	}
	return engine, nil
}

// State returns a copy of the current TimerState. It never mutates.
func (e *Engine) State() model.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Config() model.TimerConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Ticking reports whether this process has an armed tick loop.
func (e *Engine) Ticking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop != nil
}

// ResumeIfRunning reloads the persisted state and, when it says running but
// this process has no tick loop, arms one and reconciles. The load, the check
// and the re-arm share one lock hold, so a concurrent Pause is either applied
// first and seen here, or applied after the resume and wins.
func (e *Engine) ResumeIfRunning(ctx context.Context) (model.TimerState, bool, error) {
	e.mu.Lock()
	if e.loop != nil {
		state := e.state.Clone()
		e.mu.Unlock()
		return state, false, nil
	}
	if err := e.loadLocked(ctx, false); err != nil {
		state := e.state.Clone()
		e.mu.Unlock()
		return state, false, err
	}
	if e.state.Status != model.StatusRunning {
		state := e.state.Clone()
		e.mu.Unlock()
		return state, false, nil
	}

	notes, err := e.startLocked(ctx, nil)
	state := e.state.Clone()
	e.mu.Unlock()

	e.dispatch(ctx, notes)
	return state, err == nil, err
}

// Start begins or resumes the countdown. A running timer without a local tick
// loop gets one armed plus an immediate reconciliation pass.
func (e *Engine) Start(ctx context.Context, taskID *string) (model.TimerState, error) {
	e.mu.Lock()
	notes, err := e.startLocked(ctx, taskID)
	state := e.state.Clone()
	e.mu.Unlock()

	e.dispatch(ctx, notes)
	return state, err
}

func (e *Engine) Pause(ctx context.Context) (model.TimerState, error) {
	e.mu.Lock()
	notes, err := e.pauseLocked(ctx)
	state := e.state.Clone()
	e.mu.Unlock()

	e.dispatch(ctx, notes)
	return state, err
}

func (e *Engine) Reset(ctx context.Context) (model.TimerState, error) {
	e.mu.Lock()
	err := e.resetLocked(ctx)
	state := e.state.Clone()
	e.mu.Unlock()
	return state, err
}

func (e *Engine) StartBreak(ctx context.Context) (model.TimerState, error) {
	e.mu.Lock()
	err := e.startBreakLocked(ctx)
	state := e.state.Clone()
	e.mu.Unlock()
	return state, err
}

func (e *Engine) SkipBreak(ctx context.Context) (model.TimerState, error) {
	e.mu.Lock()
	err := e.skipBreakLocked(ctx)
	state := e.state.Clone()
	e.mu.Unlock()
	return state, err
}

// ResetCount sets pomodorosCompleted back to zero without touching the countdown.
// It is a no-op while a break is in progress: the break kind is derived from the
// count, so clearing it mid-break would turn a short break into a long one.
func (e *Engine) ResetCount(ctx context.Context) (model.TimerState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.PomodorosCompleted == 0 || e.state.Mode == model.ModeBreak {
		return e.state.Clone(), nil
	}
	next := e.state.Clone()
	next.PomodorosCompleted = 0
	err := e.commitLocked(ctx, next)
	return e.state.Clone(), err
}

// Tick runs one reconciliation pass against the current wall clock.
func (e *Engine) Tick(ctx context.Context) (model.TimerState, error) {
	e.mu.Lock()
	notes, err := e.reconcileLocked(ctx, e.options.Clock())
	state := e.state.Clone()
	e.mu.Unlock()

	e.dispatch(ctx, notes)
	return state, err
}

// Close disarms the tick loop. Persisted state is left as-is so a later
// process can pick the countdown up again.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLoopLocked()
}

func (e *Engine) startLocked(ctx context.Context, taskID *string) ([]notice, error) {
	switch e.state.Status {
	case model.StatusRunning:
		if e.loop != nil {
			return nil, nil
		}
		e.armLocked()
		e.logger.Info().Int("remaining", e.state.TimeRemaining).Msg("tick loop re-armed for running timer")
		return e.reconcileLocked(ctx, e.options.Clock())
	case model.StatusBreak:
		return nil, e.startBreakLocked(ctx)
	}

	fresh := e.state.Status == model.StatusIdle
	next := e.state.Clone()
	if taskID != nil {
		bound := *taskID
		next.CurrentTaskID = &bound
	}
	next.Status = model.StatusRunning
	next.LastUpdateTime = e.nowMillis() - next.CarryMillis
	next.CarryMillis = 0
	if err := e.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	e.armLocked()

	if fresh && next.Mode == model.ModeFocus {
		return []notice{{title: "Pomodoro Timer Started", message: "Focus time has begun!"}}, nil
	}
	return nil, nil
}

func (e *Engine) pauseLocked(ctx context.Context) ([]notice, error) {
	if e.state.Status != model.StatusRunning {
		return nil, nil
	}

	notes, err := e.reconcileLocked(ctx, e.options.Clock())
	if err != nil {
		return notes, err
	}
	if e.state.Status != model.StatusRunning {
		return notes, nil
	}

	next := e.state.Clone()
	// A paused break stays in break status with no tick loop.
	if next.Mode == model.ModeBreak {
		next.Status = model.StatusBreak
	} else {
		next.Status = model.StatusPaused
	}
	// The sub-second remainder left by reconciliation is credited on resume.
	now := e.nowMillis()
	next.CarryMillis = now - next.LastUpdateTime
	next.LastUpdateTime = now
	if err := e.commitLocked(ctx, next); err != nil {
		return notes, err
	}
	e.stopLoopLocked()
	return notes, nil
}

func (e *Engine) resetLocked(ctx context.Context) error {
	next := e.state.Clone()
	next.Status = model.StatusIdle
	next.TimeRemaining = e.config.DurationFor(next.Mode, next.PomodorosCompleted)
	next.CurrentTaskID = nil
	next.CarryMillis = 0
	if next.Equal(e.state) && e.loop == nil {
		return nil
	}

	next.LastUpdateTime = e.nowMillis()
	if err := e.commitLocked(ctx, next); err != nil {
		return err
	}
	e.stopLoopLocked()
	return nil
}

func (e *Engine) startBreakLocked(ctx context.Context) error {
	if e.state.Status != model.StatusBreak || e.loop != nil {
		return nil
	}

	next := e.state.Clone()
	next.Status = model.StatusRunning
	next.Mode = model.ModeBreak
	next.LastUpdateTime = e.nowMillis() - next.CarryMillis
	next.CarryMillis = 0
	if err := e.commitLocked(ctx, next); err != nil {
		return err
	}
	e.armLocked()
	return nil
}

func (e *Engine) skipBreakLocked(ctx context.Context) error {
	if e.state.Mode != model.ModeBreak || e.state.Status == model.StatusIdle {
		return nil
	}

	next := e.state.Clone()
	next.Status = model.StatusIdle
	next.Mode = model.ModeFocus
	next.TimeRemaining = e.config.FocusDuration
	next.CurrentTaskID = nil
	next.CarryMillis = 0
	next.LastUpdateTime = e.nowMillis()
	if err := e.commitLocked(ctx, next); err != nil {
		return err
	}
	e.stopLoopLocked()
	return nil
}

// commitLocked persists next and only then makes it the in-memory state.
func (e *Engine) commitLocked(ctx context.Context, next model.TimerState) error {
	if err := e.store.PutState(ctx, next); err != nil {
		return fmt.Errorf("persist timer state: %w", err)
	}
	e.state = next
	if e.publisher != nil {
		e.publisher.Publish(broadcast.Event{Type: broadcast.EventTimerUpdate, State: next.Clone()})
	}
	return nil
}

func (e *Engine) loadLocked(ctx context.Context, materialize bool) error {
	cfg, err := e.store.GetConfig(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		defaults := model.DefaultTimerConfig()
		if materialize {
			if err := e.store.PutConfig(ctx, defaults); err != nil {
				return fmt.Errorf("persist default config: %w", err)
			}
		}
		cfg = &defaults
	case err != nil:
		return fmt.Errorf("load timer config: %w", err)
	}
	e.config = *cfg

	state, err := e.store.GetState(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		defaults := model.DefaultTimerState(e.config, e.nowMillis())
		if materialize {
			if err := e.store.PutState(ctx, defaults); err != nil {
				return fmt.Errorf("persist default state: %w", err)
			}
		}
		state = &defaults
	case err != nil:
		return fmt.Errorf("load timer state: %w", err)
	}
	e.state = state.Clone()
	return nil
}

func (e *Engine) dispatch(ctx context.Context, notes []notice) {
	if e.notifier == nil {
		return
	}
	for _, note := range notes {
		if err := e.notifier.Notify(ctx, note.title, note.message); err != nil {
			e.logger.Warn().Err(err).Str("title", note.title).Msg("notification not delivered")
		}
	}
}

func (e *Engine) nowMillis() int64 {
	return e.options.Clock().UnixMilli()
}
