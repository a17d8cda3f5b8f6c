// Package notify delivers user-facing notifications. Delivery is fire and
// forget: notifiers never return errors to the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Kind is the severity shown to the user.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Notifier delivers one notification.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, title, message string)

func (f Func) Notify(kind Kind, title, message string) { f(kind, title, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string, string) {})

// Log writes notifications to a structured logger. Errors are logged at
// warning level, everything else at info level.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(kind Kind, title, message string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if kind == Error {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, title, slog.String("kind", string(kind)), slog.String("message", message))
}

// Multi delivers every notification to each of ns in order.
func Multi(ns ...Notifier) Notifier {
	return Func(func(kind Kind, title, message string) {
		for _, n := range ns {
			n.Notify(kind, title, message)
		}
	})
}

// Notification is one delivered notification, as kept by Recorder.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Recorder keeps every notification it receives. It is safe for
// concurrent use.
type Recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *Recorder) Notify(kind Kind, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, Notification{Kind: kind, Title: title, Message: message})
}

// All returns a copy of the notifications received so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return Notification{}, false
	}
	return r.got[len(r.got)-1], true
}
