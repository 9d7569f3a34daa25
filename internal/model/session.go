package model

type SessionType string

const (
	SessionPomodoro   SessionType = "pomodoro"
	SessionShortBreak SessionType = "short_break"
	SessionLongBreak  SessionType = "long_break"
)

// SessionDateLayout is the by-date index key format.
const SessionDateLayout = "2006-01-02"

// Session is an immutable record of a completed interval. Times are
// milliseconds since epoch and Duration is in seconds.
type Session struct {
	ID        string      `json:"id"`
	StartTime int64       `json:"startTime"`
	EndTime   int64       `json:"endTime"`
	Duration  int         `json:"duration"`
	Type      SessionType `json:"type"`
	Completed bool        `json:"completed"`
	TaskID    *string     `json:"taskId"`
	Date      string      `json:"date"`
}

func IsValidSessionType(t SessionType) bool {
	return t == SessionPomodoro || t == SessionShortBreak || t == SessionLongBreak
}
