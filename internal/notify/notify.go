// Package notify delivers the user-visible message emitted at the end of
// every sync run.
package notify

import (
	"log"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is one user-facing message.
type Notification struct {
	Level   Level
	Message string
	// Count is the number of highlight notes the run created.
	Count int
}

// Sink receives notifications.
type Sink interface {
	Notify(n Notification)
}

// Logger writes notifications to the standard logger.
type Logger struct {
	Prefix string
}

func (l Logger) Notify(n Notification) {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "Readwise sync"
	}
	if n.Level == LevelError {
		log.Printf("%s: FAILED: %s", prefix, n.Message)
		return
	}
	log.Printf("%s: %s", prefix, n.Message)
}

// Multi fans a notification out to every sink.
type Multi []Sink

func (m Multi) Notify(n Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(n)
		}
	}
}

// StatusWriter persists the outcome of the last run.
type StatusWriter interface {
	SetSyncStatus(status, message string, highlightsSynced int) error
}

// StatusRecorder stores each notification as the last sync status.
type StatusRecorder struct {
	Store StatusWriter
}

func (s StatusRecorder) Notify(n Notification) {
	status := "success"
	if n.Level == LevelError {
		status = "failed"
	}
	if err := s.Store.SetSyncStatus(status, n.Message, n.Count); err != nil {
		log.Printf("Readwise sync: failed to update sync status: %v", err)
	}
}
