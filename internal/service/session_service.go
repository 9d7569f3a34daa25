package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "tictask/backend/internal/errors"
	"tictask/backend/internal/model"
	"tictask/backend/internal/repository"
)

const maxHistoryLimit = 500

type SessionLister interface {
	List(ctx context.Context, filter repository.SessionFilter) ([]model.Session, error)
}

type SessionService struct {
	sessions SessionLister
	logger   zerolog.Logger
}

// HistoryQuery filters session history. A zero Limit means unset and falls
// back to the repository default of 50.
type HistoryQuery struct {
	From   string
	To     string
	TaskID string
	Limit  int
}

func NewSessionService(sessions SessionLister, logger zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		logger:   logger.With().Str("component", "session_service").Logger(),
	}
}

func (s *SessionService) History(ctx context.Context, query HistoryQuery) ([]model.Session, *apperrors.APIError) {
	if apiErr := validateDate("from", query.From); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validateDate("to", query.To); apiErr != nil {
		return nil, apiErr
	}
	if query.From != "" && query.To != "" && query.From > query.To {
		return nil, apperrors.InvalidField("invalid_range", "from", "from must not be after to")
	}
	if query.Limit < 0 || query.Limit > maxHistoryLimit {
		return nil, apperrors.InvalidField("invalid_limit", "limit", "limit must be between 1 and 500, or omitted for the default of 50")
	}

	sessions, err := s.sessions.List(ctx, repository.SessionFilter{
		From:   query.From,
		To:     query.To,
		TaskID: query.TaskID,
		Limit:  query.Limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("list sessions failed")
		return nil, apperrors.Internal("failed to get sessions")
	}
	return sessions, nil
}

func validateDate(field, value string) *apperrors.APIError {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(model.SessionDateLayout, value); err != nil {
		return apperrors.InvalidField("invalid_date", field, field+" must be a YYYY-MM-DD date")
	}
	return nil
}
