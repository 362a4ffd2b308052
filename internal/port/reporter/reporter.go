// Package reporter defines the hook reporter port and its registry.
package reporter

import (
	"context"

	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/delivery"
)

// Reporter turns a run event into a message for one hook destination type.
type Reporter interface {
	// Type returns the hook type this reporter serves.
	Type() hook.Type

	// Report filters the event against the hook and, on match, hands the
	// formatted message to delivery. It never fails the caller: problems are logged.
	Report(ctx context.Context, h *hook.Hook, ev *hook.RunEvent)
}

// Deps are the collaborators a reporter factory receives.
type Deps struct {
	Poster       delivery.Poster
	DashboardURL string
}
