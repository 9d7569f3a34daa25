package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tictask/backend/internal/model"
)

const defaultSessionLimit = 50

// SessionFilter narrows a session range query. From and To are inclusive
// YYYY-MM-DD dates; empty values are unbounded.
type SessionFilter struct {
	From   string
	To     string
	TaskID string
	Limit  int
}

// SessionRepository is the append-only session log.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Add appends a session. A session whose ID already exists is left untouched
// and Add reports false.
func (r *SessionRepository) Add(ctx context.Context, session *model.Session) (bool, error) {
	var taskID interface{}
	if session.TaskID != nil {
		taskID = *session.TaskID
	}

	result, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO sessions (
			id, start_time, end_time, duration, type, completed, task_id, date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.StartTime,
		session.EndTime,
		session.Duration,
		string(session.Type),
		boolToInt(session.Completed),
		taskID,
		session.Date,
	)
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert session rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, start_time, end_time, duration, type, completed, task_id, date
		 FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	var where []string
	var args []interface{}
	if filter.From != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.TaskID != "" {
		where = append(where, "task_id = ?")
		args = append(args, filter.TaskID)
	}

	query := `SELECT id, start_time, end_time, duration, type, completed, task_id, date FROM sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var sessionType string
	var completed int
	var taskID sql.NullString
	err := s.Scan(
		&session.ID,
		&session.StartTime,
		&session.EndTime,
		&session.Duration,
		&sessionType,
		&completed,
		&taskID,
		&session.Date,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.Type = model.SessionType(sessionType)
	session.Completed = completed != 0
	if taskID.Valid {
		value := taskID.String
		session.TaskID = &value
	}
	return &session, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
