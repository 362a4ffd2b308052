package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/runhooks/internal/domain"
	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/cache"
	"github.com/Strob0t/runhooks/internal/port/database"
)

// HookService is the backend of the hook settings form.
type HookService struct {
	store    database.HookStore
	cache    cache.Cache
	cacheTTL time.Duration
	newID    func() string
}

// NewHookService creates a HookService. c may be nil to disable caching.
func NewHookService(store database.HookStore, c cache.Cache, cacheTTL time.Duration) *HookService {
	return &HookService{store: store, cache: c, cacheTTL: cacheTTL, newID: uuid.NewString}
}

func hooksCacheKey(projectID string) string { return "hooks:" + projectID }

// Options returns the values the settings form offers.
func (s *HookService) Options() hook.FormOptions {
	return hook.Options()
}

// cachedHook is the cache form of a hook. Signing secrets stay in the
// store, so a cached entry only records that one exists.
type cachedHook struct {
	hook.Hook
	HasSecret bool `json:"hasSecret,omitempty"`
}

// List returns the hooks of a project, served from cache when possible.
func (s *HookService) List(ctx context.Context, projectID string) ([]hook.Hook, error) {
	key := hooksCacheKey(projectID)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err != nil {
			slog.Warn("hook cache get failed", "project_id", projectID, "error", err)
		} else if ok {
			var entries []cachedHook
			if err := json.Unmarshal(data, &entries); err != nil {
				slog.Warn("hook cache entry corrupt", "project_id", projectID)
			} else if hooks, err := s.restoreSecrets(ctx, projectID, entries); err != nil {
				slog.Warn("hook secret lookup failed", "project_id", projectID, "error", err)
			} else {
				return hooks, nil
			}
		}
	}

	hooks, err := s.store.ListHooks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		entries := make([]cachedHook, len(hooks))
		for i, h := range hooks {
			entries[i] = cachedHook{Hook: h, HasSecret: h.Secret != ""}
			entries[i].Secret = ""
		}
		if data, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				slog.Warn("hook cache set failed", "project_id", projectID, "error", err)
			}
		}
	}
	return hooks, nil
}

// restoreSecrets reads the secret of every cached hook that has one back
// from the store.
func (s *HookService) restoreSecrets(ctx context.Context, projectID string, entries []cachedHook) ([]hook.Hook, error) {
	hooks := make([]hook.Hook, len(entries))
	for i, e := range entries {
		hooks[i] = e.Hook
		if !e.HasSecret {
			continue
		}
		stored, err := s.store.GetHook(ctx, projectID, e.ID)
		if err != nil {
			return nil, err
		}
		hooks[i].Secret = stored.Secret
	}
	return hooks, nil
}

// Get returns one hook of a project.
func (s *HookService) Get(ctx context.Context, projectID, id string) (*hook.Hook, error) {
	return s.store.GetHook(ctx, projectID, id)
}

// Create validates req and stores a new hook.
func (s *HookService) Create(ctx context.Context, projectID string, req *hook.CreateRequest) (*hook.Hook, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required: %w", domain.ErrValidation)
	}
	if err := hook.ValidateCreate(req); err != nil {
		return nil, err
	}

	h := &hook.Hook{
		ID:           s.newID(),
		ProjectID:    projectID,
		Type:         req.Type,
		URL:          req.URL,
		Events:       req.Events,
		ResultFilter: req.ResultFilter,
		BranchFilter: req.BranchFilter,
		Headers:      req.Headers,
		Secret:       req.Secret,
	}
	if h.Events == nil {
		h.Events = []hook.Event{}
	}
	if err := s.store.CreateHook(ctx, h); err != nil {
		return nil, err
	}
	s.invalidate(ctx, projectID)

	slog.InfoContext(ctx, "hook created", h.LogAttrs()...)
	return h, nil
}

// Update submits the settings form for an existing hook. A non-zero
// req.Version must match the stored version.
func (s *HookService) Update(ctx context.Context, projectID, id string, req *hook.UpdateRequest) (*hook.Hook, error) {
	h, err := s.store.GetHook(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != h.Version {
		return nil, fmt.Errorf("update hook %s: %w", id, domain.ErrConflict)
	}
	if err := hook.ValidateUpdate(h.Type, req); err != nil {
		return nil, err
	}

	req.Apply(h)
	if err := s.store.UpdateHook(ctx, h); err != nil {
		return nil, err
	}
	s.invalidate(ctx, projectID)

	slog.InfoContext(ctx, "hook updated", append(h.LogAttrs(), "version", h.Version)...)
	return h, nil
}

// Delete removes a hook.
func (s *HookService) Delete(ctx context.Context, projectID, id string) error {
	if err := s.store.DeleteHook(ctx, projectID, id); err != nil {
		return err
	}
	s.invalidate(ctx, projectID)

	slog.InfoContext(ctx, "hook deleted", "hook_id", id, "project_id", projectID)
	return nil
}

func (s *HookService) invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, hooksCacheKey(projectID)); err != nil {
		slog.Error("hook cache invalidation failed", "project_id", projectID, "error", err)
	}
}
