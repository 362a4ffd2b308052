package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	rhotel "github.com/Strob0t/runhooks/internal/adapter/otel"
	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/messagequeue"
	"github.com/Strob0t/runhooks/internal/port/reporter"
)

// HookLister is the part of HookService dispatch needs.
type HookLister interface {
	List(ctx context.Context, projectID string) ([]hook.Hook, error)
}

// ReportService fans a run event out to every hook of the run's project.
type ReportService struct {
	hooks     HookLister
	reporters map[hook.Type]reporter.Reporter
	queue     messagequeue.Queue
	metrics   *rhotel.Metrics
	wg        sync.WaitGroup
}

// NewReportService creates a ReportService. queue and metrics may be nil.
func NewReportService(hooks HookLister, reporters map[hook.Type]reporter.Reporter, queue messagequeue.Queue, metrics *rhotel.Metrics) *ReportService {
	return &ReportService{hooks: hooks, reporters: reporters, queue: queue, metrics: metrics}
}

// Dispatch hands ev to the reporter of each hook. Every hook is evaluated
// independently and nothing is returned: failures are logged.
func (s *ReportService) Dispatch(ctx context.Context, ev *hook.RunEvent) {
	projectID := ev.Run.Meta.ProjectID
	ctx, span := rhotel.StartDispatchSpan(ctx, ev.Run.RunID, projectID, string(ev.EventType))
	defer span.End()

	if s.metrics != nil {
		s.metrics.EventsReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("hook.event", string(ev.EventType))))
	}

	hooks, err := s.hooks.List(ctx, projectID)
	if err != nil {
		slog.ErrorContext(ctx, "load hooks for run event failed",
			"project_id", projectID, "run_id", ev.Run.RunID, "event", ev.EventType, "error", err)
		return
	}

	for i := range hooks {
		h := &hooks[i]
		r, ok := s.reporters[h.Type]
		if !ok {
			slog.ErrorContext(ctx, "no reporter for hook type", h.LogAttrs()...)
			continue
		}
		r.Report(ctx, h, ev)
	}
}

// Publish sends ev to the queue for dispatch by whichever replica consumes it.
func (s *ReportService) Publish(ctx context.Context, ev *hook.RunEvent) error {
	if err := hook.ValidateRunEvent(ev); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	return s.queue.Publish(ctx, messagequeue.RunEventSubject(ev.EventType), data)
}

// Accept takes a run event from the HTTP ingress. With a queue configured the
// event is published; otherwise it is dispatched in the background.
func (s *ReportService) Accept(ctx context.Context, ev *hook.RunEvent) error {
	if err := hook.ValidateRunEvent(ev); err != nil {
		return err
	}
	if s.queue != nil {
		return s.Publish(ctx, ev)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Dispatch(context.WithoutCancel(ctx), ev)
	}()
	return nil
}

// Wait blocks until every dispatch started by Accept has handed its
// deliveries to the reporters. Stop accepting events before calling it.
func (s *ReportService) Wait() {
	s.wg.Wait()
}

// StartEventSubscriber consumes run events from subject until the returned
// cancel function is called.
func (s *ReportService) StartEventSubscriber(ctx context.Context, subject string) (func(), error) {
	if s.queue == nil {
		return nil, fmt.Errorf("event subscriber: no queue configured")
	}
	return s.queue.Subscribe(ctx, subject, s.handleEvent)
}

// handleEvent never returns an error for a bad payload: the queue already
// validated it, and a redelivery would not fix it.
func (s *ReportService) handleEvent(ctx context.Context, subject string, data []byte) error {
	var ev messagequeue.RunEventPayload
	if err := json.Unmarshal(data, &ev); err != nil {
		slog.ErrorContext(ctx, "malformed run event", "subject", subject, "error", err)
		return nil
	}
	s.Dispatch(ctx, &ev)
	return nil
}
