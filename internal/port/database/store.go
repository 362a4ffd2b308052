// Package database defines the hook storage port.
package database

import (
	"context"

	"github.com/Strob0t/runhooks/internal/domain/hook"
)

// HookStore persists hook configurations. Lookups are always scoped to a
// project; a hook id from another project is reported as not found.
type HookStore interface {
	ListHooks(ctx context.Context, projectID string) ([]hook.Hook, error)
	GetHook(ctx context.Context, projectID, id string) (*hook.Hook, error)
	// CreateHook inserts h and fills in Version and timestamps.
	CreateHook(ctx context.Context, h *hook.Hook) error
	// UpdateHook succeeds only when h.Version matches the stored version
	// (domain.ErrConflict otherwise) and increments h.Version.
	UpdateHook(ctx context.Context, h *hook.Hook) error
	DeleteHook(ctx context.Context, projectID, id string) error
}
