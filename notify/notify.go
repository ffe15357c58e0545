// Package notify carries transient user-facing notifications from the
// coordinator to whatever presents them.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single transient message.
type Notification struct {
	ID      uuid.UUID `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// New stamps a notification with a fresh id and the current time.
func New(level Level, message string) Notification {
	return Notification{
		ID:      uuid.New(),
		Level:   level,
		Message: message,
		At:      time.Now(),
	}
}

// Sink receives notifications. Deliver must not block for long.
type Sink interface {
	Deliver(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Deliver(n Notification) {
	f(n)
}

// FanOut delivers to every sink in order.
type FanOut []Sink

func (f FanOut) Deliver(n Notification) {
	for _, sink := range f {
		if sink != nil {
			sink.Deliver(n)
		}
	}
}

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Notification) {})

// LogSink writes notifications to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(n Notification) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), slogLevel(n.Level), n.Message,
		slog.String("notification_id", n.ID.String()),
		slog.String("severity", string(n.Level)),
	)
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
