// Package delivery defines the outbound hook delivery port.
package delivery

import (
	"context"

	"github.com/Strob0t/runhooks/internal/domain/hook"
)

// Request is one outbound hook POST.
type Request struct {
	HookID    string
	HookType  hook.Type
	ProjectID string
	RunID     string
	Event     hook.Event
	URL       string
	Body      []byte
	Headers   map[string]string
}

// Poster sends requests without blocking the caller. Implementations log
// failures and never retry.
type Poster interface {
	Post(ctx context.Context, req Request)
}
