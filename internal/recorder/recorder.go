// Package recorder appends completed intervals to the session log.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tictask/backend/internal/model"
	"tictask/backend/internal/repository"
)

type SessionStore interface {
	Add(ctx context.Context, session *model.Session) (bool, error)
}

type TaskStore interface {
	Get(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, update model.TaskUpdate) (*model.Task, error)
}

// Completion describes one finished interval. Times are milliseconds since epoch.
type Completion struct {
	Type      model.SessionType
	StartTime int64
	EndTime   int64
	TaskID    *string
}

type Recorder struct {
	sessions SessionStore
	tasks    TaskStore
	location *time.Location
	logger   zerolog.Logger
}

// New builds a Recorder. tasks may be nil when no task store is wired;
// location decides the calendar date sessions are indexed under.
func New(sessions SessionStore, tasks TaskStore, location *time.Location, logger zerolog.Logger) *Recorder {
	if location == nil {
		location = time.Local
	}
	return &Recorder{
		sessions: sessions,
		tasks:    tasks,
		location: location,
		logger:   logger,
	}
}

// Record writes the session for a completion. The session ID is derived from
// the type and end instant, so recording the same completion twice leaves a
// single row and bumps the task counter once.
func (r *Recorder) Record(ctx context.Context, completion Completion) (*model.Session, error) {
	if !model.IsValidSessionType(completion.Type) {
		return nil, fmt.Errorf("record session: unknown type %q", completion.Type)
	}
	if completion.EndTime < completion.StartTime {
		completion.StartTime = completion.EndTime
	}

	session := &model.Session{
		ID:        SessionID(completion.Type, completion.EndTime),
		StartTime: completion.StartTime,
		EndTime:   completion.EndTime,
		Duration:  int((completion.EndTime - completion.StartTime) / 1000),
		Type:      completion.Type,
		Completed: true,
		Date:      time.UnixMilli(completion.StartTime).In(r.location).Format(model.SessionDateLayout),
	}
	if completion.TaskID != nil {
		taskID := *completion.TaskID
		session.TaskID = &taskID
	}

	inserted, err := r.sessions.Add(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	if !inserted {
		r.logger.Debug().Str("session", session.ID).Msg("session already recorded")
		return session, nil
	}

	r.logger.Info().
		Str("session", session.ID).
		Str("type", string(session.Type)).
		Int("duration", session.Duration).
		Msg("session recorded")

	if session.Type == model.SessionPomodoro && session.TaskID != nil {
		r.creditTask(ctx, *session.TaskID)
	}
	return session, nil
}

// creditTask failures are logged only: the session row is already durable and
// the task counter belongs to an external entity.
func (r *Recorder) creditTask(ctx context.Context, taskID string) {
	if r.tasks == nil {
		return
	}

	task, err := r.tasks.Get(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn().Str("task", taskID).Msg("bound task not found, pomodoro not credited")
		return
	}
	if err != nil {
		r.logger.Error().Err(err).Str("task", taskID).Msg("failed to load task")
		return
	}

	completed := task.PomodorosCompleted + 1
	if _, err := r.tasks.Update(ctx, taskID, model.TaskUpdate{PomodorosCompleted: &completed}); err != nil {
		r.logger.Error().Err(err).Str("task", taskID).Msg("failed to credit task")
	}
}

var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tictask:sessions"))

func SessionID(sessionType model.SessionType, endTime int64) string {
	return uuid.NewSHA1(sessionNamespace, []byte(fmt.Sprintf("%s:%d", sessionType, endTime))).String()
}
