// Package webhookpost delivers hook payloads over HTTP without blocking the
// caller. Failures are logged and counted, never retried.
package webhookpost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	rhotel "github.com/Strob0t/runhooks/internal/adapter/otel"
	"github.com/Strob0t/runhooks/internal/port/broadcast"
	"github.com/Strob0t/runhooks/internal/port/delivery"
	"github.com/Strob0t/runhooks/internal/resilience"
)

// broadcastTimeout bounds how long one outcome may take to reach dashboard clients.
const broadcastTimeout = 2 * time.Second

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status %d", e.Code) }

// Config tunes outbound delivery.
type Config struct {
	Timeout         time.Duration
	MaxConcurrent   int
	BreakerFailures int
	BreakerCooldown time.Duration
	UserAgent       string
}

// Poster implements delivery.Poster.
type Poster struct {
	client    *http.Client
	sem       *semaphore.Weighted
	breakers  *resilience.BreakerSet
	metrics   *rhotel.Metrics
	hub       broadcast.Broadcaster
	timeout   time.Duration
	userAgent string
	wg        sync.WaitGroup
}

var _ delivery.Poster = (*Poster)(nil)

// Option customises a Poster.
type Option func(*Poster)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option { return func(p *Poster) { p.client = c } }

// WithMetrics records delivery counters and durations.
func WithMetrics(m *rhotel.Metrics) Option { return func(p *Poster) { p.metrics = m } }

// WithBroadcaster publishes each outcome.
func WithBroadcaster(b broadcast.Broadcaster) Option { return func(p *Poster) { p.hub = b } }

// New creates a Poster.
func New(cfg Config, opts ...Option) *Poster {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = time.Minute
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "runhooks"
	}
	p := &Poster{
		client:    &http.Client{Transport: rhotel.Transport(nil)},
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		breakers:  resilience.NewBreakerSet(cfg.BreakerFailures, cfg.BreakerCooldown),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Post schedules req and returns immediately. Cancelling ctx does not abort
// the delivery; each attempt runs under its own timeout.
func (p *Poster) Post(ctx context.Context, req delivery.Request) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.deliver(context.WithoutCancel(ctx), req)
	}()
}

// Wait blocks until every scheduled delivery has finished.
func (p *Poster) Wait() { p.wg.Wait() }

// OpenCircuits lists webhook URLs currently short-circuited.
func (p *Poster) OpenCircuits() []string { return p.breakers.Open() }

func (p *Poster) deliver(parent context.Context, req delivery.Request) {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	ctx, span := rhotel.StartDeliverySpan(ctx, req.HookID, string(req.HookType), string(req.Event))
	defer span.End()

	log := slog.With(
		"hook_id", req.HookID,
		"hook_type", req.HookType,
		"url", req.URL,
		"run_id", req.RunID,
		"event", req.Event,
	)

	if err := p.sem.Acquire(ctx, 1); err != nil {
		log.Warn("hook delivery dropped, no free slot", "error", err)
		p.finish(ctx, req, broadcast.OutcomeFailed, 0, err, 0)
		return
	}

	start := time.Now()
	var status int
	err := p.breakers.Execute(req.URL, func() error {
		var postErr error
		status, postErr = p.send(ctx, req)
		return postErr
	})
	elapsed := time.Since(start)
	// The slot covers the HTTP exchange only; reporting happens outside it.
	p.sem.Release(1)
	span.SetAttributes(attribute.Int("http.status_code", status))

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		log.Warn("hook delivery skipped, circuit open")
		span.SetStatus(codes.Error, "circuit open")
		p.finish(ctx, req, broadcast.OutcomeSkipped, 0, err, 0)
	case err != nil:
		log.Warn("hook delivery failed", "status", status, "error", err, "duration", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.finish(ctx, req, broadcast.OutcomeFailed, status, err, elapsed)
	default:
		log.Debug("hook delivered", "status", status, "duration", elapsed)
		p.finish(ctx, req, broadcast.OutcomeDelivered, status, nil, elapsed)
	}
}

func (p *Poster) send(ctx context.Context, req delivery.Request) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}
	return resp.StatusCode, nil
}

func (p *Poster) finish(ctx context.Context, req delivery.Request, outcome string, status int, err error, elapsed time.Duration) {
	if p.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("hook.type", string(req.HookType)))
		switch outcome {
		case broadcast.OutcomeDelivered:
			p.metrics.HooksDelivered.Add(ctx, 1, attrs)
		case broadcast.OutcomeSkipped:
			p.metrics.HooksSkipped.Add(ctx, 1, attrs)
		default:
			p.metrics.HooksFailed.Add(ctx, 1, attrs)
		}
		if elapsed > 0 {
			p.metrics.DeliveryDuration.Record(ctx, elapsed.Seconds(), attrs)
		}
	}

	if p.hub == nil {
		return
	}
	ev := broadcast.DeliveryEvent{
		HookID:     req.HookID,
		HookType:   string(req.HookType),
		ProjectID:  req.ProjectID,
		RunID:      req.RunID,
		Event:      string(req.Event),
		Outcome:    outcome,
		StatusCode: status,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
	defer cancel()
	p.hub.HookDelivery(bctx, ev)
}
