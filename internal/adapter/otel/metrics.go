package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "runhooks"

// Metrics holds the hook delivery instruments.
type Metrics struct {
	EventsReceived   metric.Int64Counter
	HooksDelivered   metric.Int64Counter
	HooksFailed      metric.Int64Counter
	HooksSkipped     metric.Int64Counter
	DeliveryDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.Meter(meterName))
}

// NewMetricsFrom creates the instruments on meter.
func NewMetricsFrom(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.EventsReceived, err = meter.Int64Counter("runhooks.events.received",
		metric.WithDescription("Run events received for dispatch"))
	if err != nil {
		return nil, err
	}

	m.HooksDelivered, err = meter.Int64Counter("runhooks.hooks.delivered",
		metric.WithDescription("Hook posts answered with a 2xx/3xx status"))
	if err != nil {
		return nil, err
	}

	m.HooksFailed, err = meter.Int64Counter("runhooks.hooks.failed",
		metric.WithDescription("Hook posts that errored or returned >= 400"))
	if err != nil {
		return nil, err
	}

	m.HooksSkipped, err = meter.Int64Counter("runhooks.hooks.skipped",
		metric.WithDescription("Hook posts rejected by an open circuit breaker"))
	if err != nil {
		return nil, err
	}

	m.DeliveryDuration, err = meter.Float64Histogram("runhooks.hook.duration_seconds",
		metric.WithDescription("Hook post duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
