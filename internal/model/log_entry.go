package model

import "time"

type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelWarn    LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

type LogEntry struct {
	Time    time.Time `json:"timestamp"`
	Message string    `json:"message"`
	IsError bool      `json:"is_error"`
	Level   LogLevel  `json:"level"`
}

// Timestamp renders the entry time as ISO-8601 in UTC.
func (e LogEntry) Timestamp() string {
	return e.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
