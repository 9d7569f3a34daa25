package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "tictask/backend/internal/errors"
	"tictask/backend/internal/model"
	"tictask/backend/internal/settings"
)

// TimerEngine is the command surface of timer.Engine.
type TimerEngine interface {
	State() model.TimerState
	Config() model.TimerConfig
	Start(ctx context.Context, taskID *string) (model.TimerState, error)
	Pause(ctx context.Context) (model.TimerState, error)
	Reset(ctx context.Context) (model.TimerState, error)
	StartBreak(ctx context.Context) (model.TimerState, error)
	SkipBreak(ctx context.Context) (model.TimerState, error)
	ResetCount(ctx context.Context) (model.TimerState, error)
	ConfigChanged(ctx context.Context, cfg model.TimerConfig, statusHint model.Status) (model.TimerState, error)
}

type TimerService struct {
	engine       TimerEngine
	settingsFile string
	logger       zerolog.Logger
}

type UpdateConfigInput struct {
	Config     model.TimerConfig
	StatusHint string
}

// NewTimerService wires the engine. When settingsFile is set, config changes
// made through the service are written back to it.
func NewTimerService(engine TimerEngine, settingsFile string, logger zerolog.Logger) *TimerService {
	return &TimerService{
		engine:       engine,
		settingsFile: settingsFile,
		logger:       logger.With().Str("component", "timer_service").Logger(),
	}
}

func (s *TimerService) GetState() model.TimerState {
	return s.engine.State()
}

func (s *TimerService) GetConfig() model.TimerConfig {
	return s.engine.Config()
}

func (s *TimerService) Start(ctx context.Context, taskID *string) (*model.TimerState, *apperrors.APIError) {
	if taskID != nil && *taskID == "" {
		taskID = nil
	}
	return s.run("start", func() (model.TimerState, error) { return s.engine.Start(ctx, taskID) })
}

func (s *TimerService) Pause(ctx context.Context) (*model.TimerState, *apperrors.APIError) {
	return s.run("pause", func() (model.TimerState, error) { return s.engine.Pause(ctx) })
}

func (s *TimerService) Reset(ctx context.Context) (*model.TimerState, *apperrors.APIError) {
	return s.run("reset", func() (model.TimerState, error) { return s.engine.Reset(ctx) })
}

func (s *TimerService) StartBreak(ctx context.Context) (*model.TimerState, *apperrors.APIError) {
	return s.run("start break", func() (model.TimerState, error) { return s.engine.StartBreak(ctx) })
}

func (s *TimerService) SkipBreak(ctx context.Context) (*model.TimerState, *apperrors.APIError) {
	return s.run("skip break", func() (model.TimerState, error) { return s.engine.SkipBreak(ctx) })
}

func (s *TimerService) ResetCount(ctx context.Context) (*model.TimerState, *apperrors.APIError) {
	return s.run("reset count", func() (model.TimerState, error) { return s.engine.ResetCount(ctx) })
}

func (s *TimerService) UpdateConfig(ctx context.Context, input UpdateConfigInput) (*model.TimerState, *apperrors.APIError) {
	hint := model.Status(input.StatusHint)
	if hint != "" && !model.IsValidStatus(hint) {
		return nil, apperrors.InvalidField("invalid_status_hint", "statusHint", "statusHint must be idle, running, paused or break")
	}

	state, err := s.engine.ConfigChanged(ctx, input.Config, hint)
	if errors.Is(err, model.ErrInvalidConfig) {
		return nil, apperrors.BadRequest("invalid_config", err.Error())
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("config change failed")
		return nil, apperrors.Internal("failed to update timer config")
	}

	if s.settingsFile != "" {
		if err := settings.Save(s.settingsFile, s.engine.Config()); err != nil {
			s.logger.Warn().Err(err).Msg("settings file not updated")
		}
	}
	return &state, nil
}

func (s *TimerService) run(action string, command func() (model.TimerState, error)) (*model.TimerState, *apperrors.APIError) {
	state, err := command()
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("timer command failed")
		return nil, apperrors.Internal("failed to " + action + " timer")
	}
	return &state, nil
}
