package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/runhooks/internal/adapter/ristretto"
	"github.com/Strob0t/runhooks/internal/domain"
	"github.com/Strob0t/runhooks/internal/domain/hook"
)

// memHookStore is an in-memory database.HookStore.
type memHookStore struct {
	mu        sync.Mutex
	hooks     map[string]hook.Hook
	listCalls int
	listErr   error
}

func newMemHookStore() *memHookStore {
	return &memHookStore{hooks: map[string]hook.Hook{}}
}

func (m *memHookStore) ListHooks(_ context.Context, projectID string) ([]hook.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []hook.Hook{}
	for _, h := range m.hooks {
		if h.ProjectID == projectID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHookStore) GetHook(_ context.Context, projectID, id string) (*hook.Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[id]
	if !ok || h.ProjectID != projectID {
		return nil, fmt.Errorf("get hook %s: %w", id, domain.ErrNotFound)
	}
	return &h, nil
}

func (m *memHookStore) CreateHook(_ context.Context, h *hook.Hook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.Version = 1
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	m.hooks[h.ID] = *h
	return nil
}

func (m *memHookStore) UpdateHook(_ context.Context, h *hook.Hook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.hooks[h.ID]
	if !ok || cur.ProjectID != h.ProjectID {
		return domain.ErrNotFound
	}
	if cur.Version != h.Version {
		return domain.ErrConflict
	}
	h.Version++
	m.hooks[h.ID] = *h
	return nil
}

func (m *memHookStore) DeleteHook(_ context.Context, projectID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[id]
	if !ok || h.ProjectID != projectID {
		return domain.ErrNotFound
	}
	delete(m.hooks, id)
	return nil
}

func newTestHookService(t *testing.T, store *memHookStore) *HookService {
	t.Helper()
	c, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	svc := NewHookService(store, c, time.Minute)
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("hook-%d", n) }
	return svc
}

func discordRequest() *hook.CreateRequest {
	return &hook.CreateRequest{
		Type:         hook.TypeDiscord,
		URL:          "https://discord.com/api/webhooks/1/abc",
		Events:       []hook.Event{hook.EventRunFinish},
		ResultFilter: hook.ResultAll,
	}
}

func TestHookServiceCreate(t *testing.T) {
	store := newMemHookStore()
	svc := newTestHookService(t, store)

	h, err := svc.Create(context.Background(), "p1", discordRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID != "hook-1" || h.ProjectID != "p1" || h.Version != 1 {
		t.Fatalf("unexpected hook %+v", h)
	}
}

func TestHookServiceCreateValidation(t *testing.T) {
	svc := newTestHookService(t, newMemHookStore())

	req := discordRequest()
	req.URL = ""
	_, err := svc.Create(context.Background(), "p1", req)

	var fe *hook.FieldError
	if !errors.As(err, &fe) || fe.Message != "Webhook URL is required" {
		t.Fatalf("expected url field error, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatal("expected ErrValidation")
	}

	if _, err := svc.Create(context.Background(), "", discordRequest()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty project, got %v", err)
	}
}

func TestHookServiceListCachesAndInvalidates(t *testing.T) {
	store := newMemHookStore()
	svc := newTestHookService(t, store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "p1", discordRequest()); err != nil {
		t.Fatal(err)
	}

	for range 3 {
		hooks, err := svc.List(ctx, "p1")
		if err != nil || len(hooks) != 1 {
			t.Fatalf("list = %v, %v", hooks, err)
		}
	}
	if store.listCalls != 1 {
		t.Fatalf("expected 1 store call, got %d", store.listCalls)
	}

	if _, err := svc.Create(ctx, "p1", discordRequest()); err != nil {
		t.Fatal(err)
	}
	hooks, _ := svc.List(ctx, "p1")
	if len(hooks) != 2 || store.listCalls != 2 {
		t.Fatalf("expected fresh list after create, got %d hooks / %d calls", len(hooks), store.listCalls)
	}
}

func TestHookServiceCacheOmitsSecret(t *testing.T) {
	store := newMemHookStore()
	svc := newTestHookService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "p1", &hook.CreateRequest{
		Type:         hook.TypeGeneric,
		URL:          "https://ci.example.com/hook",
		Events:       []hook.Event{hook.EventRunFinish},
		ResultFilter: hook.ResultAll,
		Secret:       "s3cret-value",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "p1", discordRequest()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.List(ctx, "p1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	data, ok, err := svc.cache.Get(ctx, hooksCacheKey("p1"))
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	if strings.Contains(string(data), "s3cret-value") {
		t.Fatalf("cached hook list contains the signing secret: %s", data)
	}

	hooks, err := svc.List(ctx, "p1")
	if err != nil {
		t.Fatalf("cached list: %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected cached list, store listed %d times", store.listCalls)
	}
	secrets := map[string]string{}
	for _, h := range hooks {
		secrets[h.ID] = h.Secret
	}
	if secrets[created.ID] != "s3cret-value" {
		t.Fatalf("secret not restored from store: %+v", hooks)
	}
	if len(secrets) != 2 {
		t.Fatalf("expected 2 hooks, got %+v", hooks)
	}
}

func TestHookServiceListWithoutCache(t *testing.T) {
	store := newMemHookStore()
	svc := NewHookService(store, nil, 0)

	hooks, err := svc.List(context.Background(), "p1")
	if err != nil || len(hooks) != 0 {
		t.Fatalf("list = %v, %v", hooks, err)
	}
	store.listErr = errors.New("db down")
	if _, err := svc.List(context.Background(), "p1"); err == nil {
		t.Fatal("expected store error")
	}
}

func TestHookServiceUpdate(t *testing.T) {
	store := newMemHookStore()
	svc := newTestHookService(t, store)
	ctx := context.Background()

	h, _ := svc.Create(ctx, "p1", discordRequest())

	url := "https://discord.com/api/webhooks/2/def"
	failed := hook.ResultFailed
	updated, err := svc.Update(ctx, "p1", h.ID, &hook.UpdateRequest{
		URL:          &url,
		ResultFilter: &failed,
		Events:       []hook.Event{},
		Version:      1,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.URL != url || updated.ResultFilter != hook.ResultFailed || len(updated.Events) != 0 || updated.Version != 2 {
		t.Fatalf("unexpected hook %+v", updated)
	}
}

func TestHookServiceUpdateErrors(t *testing.T) {
	store := newMemHookStore()
	svc := newTestHookService(t, store)
	ctx := context.Background()
	h, _ := svc.Create(ctx, "p1", discordRequest())

	empty := ""
	unknown := hook.ResultFilter("SOMETIMES")
	tests := []struct {
		name    string
		project string
		id      string
		req     *hook.UpdateRequest
		want    error
	}{
		{"stale version", "p1", h.ID, &hook.UpdateRequest{Version: 7}, domain.ErrConflict},
		{"empty url", "p1", h.ID, &hook.UpdateRequest{URL: &empty}, domain.ErrValidation},
		{"unknown filter", "p1", h.ID, &hook.UpdateRequest{ResultFilter: &unknown}, domain.ErrValidation},
		{"slack-only field", "p1", h.ID, &hook.UpdateRequest{BranchFilter: []string{"main"}}, domain.ErrValidation},
		{"other project", "p2", h.ID, &hook.UpdateRequest{}, domain.ErrNotFound},
		{"missing hook", "p1", "nope", &hook.UpdateRequest{}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.project, tt.id, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHookServiceDelete(t *testing.T) {
	store := newMemHookStore()
	svc := newTestHookService(t, store)
	ctx := context.Background()
	h, _ := svc.Create(ctx, "p1", discordRequest())
	_, _ = svc.List(ctx, "p1")

	if err := svc.Delete(ctx, "p1", h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	hooks, _ := svc.List(ctx, "p1")
	if len(hooks) != 0 {
		t.Fatalf("expected cache invalidated after delete, got %d hooks", len(hooks))
	}
	if err := svc.Delete(ctx, "p1", h.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHookServiceOptions(t *testing.T) {
	opts := newTestHookService(t, newMemHookStore()).Options()
	if len(opts.HookEvents) != len(hook.AllEvents) || opts.ResultFilters[0].Value != "ALL" {
		t.Fatalf("unexpected options %+v", opts)
	}
}
