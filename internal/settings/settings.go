// Package settings reads timer durations from a YAML file and pushes edits
// into the engine while the daemon runs.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"tictask/backend/internal/model"
)

// File is the on-disk shape. Zero or negative fields mean "keep current".
type File struct {
	FocusDurationSeconds      int `yaml:"focus_duration_seconds"`
	ShortBreakDurationSeconds int `yaml:"short_break_duration_seconds"`
	LongBreakDurationSeconds  int `yaml:"long_break_duration_seconds"`
	LongBreakInterval         int `yaml:"long_break_interval"`
}

// Target receives configuration changes.
type Target interface {
	Config() model.TimerConfig
	ConfigChanged(ctx context.Context, cfg model.TimerConfig, statusHint model.Status) (model.TimerState, error)
}

// Load overlays the file at path onto current. A missing file returns current.
func Load(path string, current model.TimerConfig) (model.TimerConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return current, nil
	}
	if err != nil {
		return current, fmt.Errorf("read settings %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return current, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return file.merge(current), nil
}

// Save writes cfg to path in the same format Load reads.
func Save(path string, cfg model.TimerConfig) error {
	data, err := yaml.Marshal(File{
		FocusDurationSeconds:      cfg.FocusDuration,
		ShortBreakDurationSeconds: cfg.ShortBreakDuration,
		LongBreakDurationSeconds:  cfg.LongBreakDuration,
		LongBreakInterval:         cfg.LongBreakInterval,
	})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

// Apply loads the file and hands a changed config to target. It reports
// whether target was called.
func Apply(ctx context.Context, path string, target Target) (bool, error) {
	current := target.Config()
	next, err := Load(path, current)
	if err != nil {
		return false, err
	}
	if next == current {
		return false, nil
	}
	if _, err := target.ConfigChanged(ctx, next, ""); err != nil {
		return false, fmt.Errorf("apply settings: %w", err)
	}
	return true, nil
}

func (f File) merge(current model.TimerConfig) model.TimerConfig {
	next := current
	if f.FocusDurationSeconds > 0 {
		next.FocusDuration = f.FocusDurationSeconds
	}
	if f.ShortBreakDurationSeconds > 0 {
		next.ShortBreakDuration = f.ShortBreakDurationSeconds
	}
	if f.LongBreakDurationSeconds > 0 {
		next.LongBreakDuration = f.LongBreakDurationSeconds
	}
	if f.LongBreakInterval > 0 {
		next.LongBreakInterval = f.LongBreakInterval
	}
	return next
}
