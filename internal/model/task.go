package model

import "time"

const (
	TaskStatusToDo       = "to_do"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

type Task struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Status             string    `json:"status"`
	PomodorosCompleted int       `json:"pomodorosCompleted"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TaskUpdate carries the fields of a partial task update; nil fields are left as-is.
type TaskUpdate struct {
	Title              *string
	Status             *string
	PomodorosCompleted *int
}

func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusToDo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}
