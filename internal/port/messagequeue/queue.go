// Package messagequeue defines the message queue port (interface).
package messagequeue

import (
	"context"
	"strings"

	"github.com/Strob0t/runhooks/internal/domain/hook"
)

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription and returns once the
	// handler calls already underway have finished.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain processes pending messages, then closes the connection. It
	// returns once the connection is closed or ctx expires.
	Drain(ctx context.Context) error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects. Run events are published by the director on
// runs.events.<EVENT_TYPE>; the dead-letter copy of a message on subject S
// goes to DLQPrefix + S.
const (
	SubjectRunEvents    = "runs.events"
	SubjectRunEventsAll = SubjectRunEvents + ".>"
	DLQPrefix           = "dlq."
)

// RunEventSubject returns the subject a run event of type e is published on.
func RunEventSubject(e hook.Event) string {
	return SubjectRunEvents + "." + string(e)
}

// IsRunEventSubject reports whether subject carries run events.
func IsRunEventSubject(subject string) bool {
	return strings.HasPrefix(subject, SubjectRunEvents+".")
}
