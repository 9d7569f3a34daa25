package model

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusBreak   Status = "break"
)

type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

// StateKey identifies the singleton TimerState and TimerConfig records.
const StateKey = "default"

const (
	DefaultFocusDurationSeconds      = 25 * 60
	DefaultShortBreakDurationSeconds = 5 * 60
	DefaultLongBreakDurationSeconds  = 15 * 60
	DefaultLongBreakInterval         = 4
)

var ErrInvalidConfig = errors.New("invalid timer config")

// TimerState is the single mutable source of truth for the countdown.
// LastUpdateTime is milliseconds since epoch and only feeds reconciliation.
// CarryMillis holds the uncharged sub-second remainder of a paused interval.
type TimerState struct {
	TimeRemaining      int     `json:"timeRemaining"`
	Status             Status  `json:"status"`
	Mode               Mode    `json:"mode"`
	PomodorosCompleted int     `json:"pomodorosCompleted"`
	CurrentTaskID      *string `json:"currentTaskId"`
	LastUpdateTime     int64   `json:"lastUpdateTime"`
	CarryMillis        int64   `json:"-"`
}

// TimerConfig holds durations in seconds.
type TimerConfig struct {
	FocusDuration      int `json:"focusDuration"`
	ShortBreakDuration int `json:"shortBreakDuration"`
	LongBreakDuration  int `json:"longBreakDuration"`
	LongBreakInterval  int `json:"longBreakInterval"`
}

func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		FocusDuration:      DefaultFocusDurationSeconds,
		ShortBreakDuration: DefaultShortBreakDurationSeconds,
		LongBreakDuration:  DefaultLongBreakDurationSeconds,
		LongBreakInterval:  DefaultLongBreakInterval,
	}
}

// DefaultTimerState is the idle focus state materialized on first activation.
func DefaultTimerState(cfg TimerConfig, nowMillis int64) TimerState {
	return TimerState{
		TimeRemaining:  cfg.FocusDuration,
		Status:         StatusIdle,
		Mode:           ModeFocus,
		LastUpdateTime: nowMillis,
	}
}

func (c TimerConfig) Validate() error {
	if c.FocusDuration <= 0 || c.ShortBreakDuration <= 0 || c.LongBreakDuration <= 0 {
		return fmt.Errorf("%w: all durations must be positive seconds", ErrInvalidConfig)
	}
	if c.LongBreakInterval <= 0 {
		return fmt.Errorf("%w: long break interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// BreakKind picks the break that follows the given number of completed focus
// sessions: every LongBreakInterval-th completion earns a long break.
func (c TimerConfig) BreakKind(pomodorosCompleted int) SessionType {
	if c.LongBreakInterval > 0 && pomodorosCompleted%c.LongBreakInterval == 0 {
		return SessionLongBreak
	}
	return SessionShortBreak
}

func (c TimerConfig) BreakDuration(pomodorosCompleted int) int {
	if c.BreakKind(pomodorosCompleted) == SessionLongBreak {
		return c.LongBreakDuration
	}
	return c.ShortBreakDuration
}

// DurationFor returns the full length of an interval in the given mode.
func (c TimerConfig) DurationFor(mode Mode, pomodorosCompleted int) int {
	if mode == ModeBreak {
		return c.BreakDuration(pomodorosCompleted)
	}
	return c.FocusDuration
}

func (s TimerState) Clone() TimerState {
	clone := s
	if s.CurrentTaskID != nil {
		taskID := *s.CurrentTaskID
		clone.CurrentTaskID = &taskID
	}
	return clone
}

// Equal compares every field except LastUpdateTime.
func (s TimerState) Equal(other TimerState) bool {
	if s.TimeRemaining != other.TimeRemaining ||
		s.Status != other.Status ||
		s.Mode != other.Mode ||
		s.PomodorosCompleted != other.PomodorosCompleted ||
		s.CarryMillis != other.CarryMillis {
		return false
	}
	if s.CurrentTaskID == nil || other.CurrentTaskID == nil {
		return s.CurrentTaskID == nil && other.CurrentTaskID == nil
	}
	return *s.CurrentTaskID == *other.CurrentTaskID
}

func IsValidStatus(status Status) bool {
	switch status {
	case StatusIdle, StatusRunning, StatusPaused, StatusBreak:
		return true
	}
	return false
}

func IsValidMode(mode Mode) bool {
	return mode == ModeFocus || mode == ModeBreak
}
