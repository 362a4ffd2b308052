package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/messagequeue"
	"github.com/Strob0t/runhooks/internal/service"
)

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Hooks   *service.HookService
	Reports *service.ReportService
	DB      Pinger             // nil when running without a database check
	Queue   messagequeue.Queue // nil when NATS is disabled
	Version string
}

const hookNotFound = "hook not found"

// Options returns the selectable values of the hook settings form.
func (h *Handlers) Options(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Hooks.Options())
}

// The hook handlers never return signing secrets.

func (h *Handlers) listHooks(ctx context.Context, projectID string) ([]hook.Hook, error) {
	hooks, err := h.Hooks.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]hook.Hook, len(hooks))
	for i := range hooks {
		out[i] = hooks[i].Redacted()
	}
	return out, nil
}

func (h *Handlers) getHook(ctx context.Context, projectID, id string) (*hook.Hook, error) {
	return redacted(h.Hooks.Get(ctx, projectID, id))
}

func (h *Handlers) createHook(ctx context.Context, projectID string, req *hook.CreateRequest) (*hook.Hook, error) {
	return redacted(h.Hooks.Create(ctx, projectID, req))
}

func (h *Handlers) updateHook(ctx context.Context, projectID, id string, req *hook.UpdateRequest) (*hook.Hook, error) {
	return redacted(h.Hooks.Update(ctx, projectID, id, req))
}

func redacted(h *hook.Hook, err error) (*hook.Hook, error) {
	if err != nil {
		return nil, err
	}
	r := h.Redacted()
	return &r, nil
}

// ListHooks handles GET /projects/{projectId}/hooks.
func (h *Handlers) ListHooks() http.HandlerFunc { return handleList(h.listHooks, "project not found") }

// GetHook handles GET /projects/{projectId}/hooks/{hookId}.
func (h *Handlers) GetHook() http.HandlerFunc { return handleGet(h.getHook, hookNotFound) }

// CreateHook handles POST /projects/{projectId}/hooks.
func (h *Handlers) CreateHook() http.HandlerFunc { return handleCreate(h.createHook) }

// UpdateHook handles PUT /projects/{projectId}/hooks/{hookId}, the settings form submission.
func (h *Handlers) UpdateHook() http.HandlerFunc { return handleUpdate(h.updateHook, hookNotFound) }

// DeleteHook handles DELETE /projects/{projectId}/hooks/{hookId}.
func (h *Handlers) DeleteHook() http.HandlerFunc { return handleDelete(h.Hooks.Delete, hookNotFound) }

type acceptedResponse struct {
	Status string `json:"status"`
	RunID  string `json:"runId"`
}

// HandleRunEvent accepts a run progress event from the director and returns
// 202 before any hook is contacted.
func (h *Handlers) HandleRunEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readJSON[hook.RunEvent](w, r)
	if !ok {
		return
	}
	if err := h.Reports.Accept(r.Context(), &ev); err != nil {
		writeDomainError(w, err, "event rejected")
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", RunID: ev.Run.RunID})
}

type healthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Postgres string `json:"postgres"`
	NATS     string `json:"nats"`
}

// Health reports the reachability of the database and the queue. Only a
// failed database ping makes the service unhealthy; NATS is optional.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", Version: h.Version, Postgres: "disabled", NATS: "disabled"}
	code := http.StatusOK

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			status.Postgres = "ok"
		}
	}
	if h.Queue != nil {
		status.NATS = "ok"
		if !h.Queue.IsConnected() {
			status.NATS = "disconnected"
		}
	}
	writeJSON(w, code, status)
}
