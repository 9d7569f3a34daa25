package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tictask/backend/internal/model"
)

// TimerRepository persists the TimerState and TimerConfig singletons.
type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) GetState(ctx context.Context) (*model.TimerState, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT time_remaining, status, mode, pomodoros_completed, current_task_id, last_update_time, carry_millis
		 FROM timer_state WHERE id = ?`,
		model.StateKey,
	)
	return scanTimerState(row)
}

func (r *TimerRepository) PutState(ctx context.Context, state model.TimerState) error {
	var currentTaskID interface{}
	if state.CurrentTaskID != nil {
		currentTaskID = *state.CurrentTaskID
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_state (
			id, time_remaining, status, mode, pomodoros_completed, current_task_id, last_update_time, carry_millis
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			time_remaining = excluded.time_remaining,
			status = excluded.status,
			mode = excluded.mode,
			pomodoros_completed = excluded.pomodoros_completed,
			current_task_id = excluded.current_task_id,
			last_update_time = excluded.last_update_time,
			carry_millis = excluded.carry_millis`,
		model.StateKey,
		state.TimeRemaining,
		string(state.Status),
		string(state.Mode),
		state.PomodorosCompleted,
		currentTaskID,
		state.LastUpdateTime,
		state.CarryMillis,
	)
	if err != nil {
		return fmt.Errorf("put state: %w", err)
	}
	return nil
}

func (r *TimerRepository) GetConfig(ctx context.Context) (*model.TimerConfig, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT focus_duration, short_break_duration, long_break_duration, long_break_interval
		 FROM timer_config WHERE id = ?`,
		model.StateKey,
	)

	var cfg model.TimerConfig
	err := row.Scan(&cfg.FocusDuration, &cfg.ShortBreakDuration, &cfg.LongBreakDuration, &cfg.LongBreakInterval)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan config: %w", err)
	}
	return &cfg, nil
}

func (r *TimerRepository) PutConfig(ctx context.Context, cfg model.TimerConfig) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_config (
			id, focus_duration, short_break_duration, long_break_duration, long_break_interval, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			focus_duration = excluded.focus_duration,
			short_break_duration = excluded.short_break_duration,
			long_break_duration = excluded.long_break_duration,
			long_break_interval = excluded.long_break_interval,
			updated_at = excluded.updated_at`,
		model.StateKey,
		cfg.FocusDuration,
		cfg.ShortBreakDuration,
		cfg.LongBreakDuration,
		cfg.LongBreakInterval,
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}

func scanTimerState(s scanner) (*model.TimerState, error) {
	state := model.TimerState{}
	var status string
	var mode string
	var currentTaskID sql.NullString
	err := s.Scan(
		&state.TimeRemaining,
		&status,
		&mode,
		&state.PomodorosCompleted,
		&currentTaskID,
		&state.LastUpdateTime,
		&state.CarryMillis,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan state: %w", err)
	}

	state.Status = model.Status(status)
	state.Mode = model.Mode(mode)
	if !model.IsValidStatus(state.Status) || !model.IsValidMode(state.Mode) {
		return nil, fmt.Errorf("scan state: unknown status %q or mode %q", status, mode)
	}
	if currentTaskID.Valid {
		value := currentTaskID.String
		state.CurrentTaskID = &value
	}
	return &state, nil
}
