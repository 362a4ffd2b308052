// Package broadcast defines the port for pushing delivery results to live
// dashboard clients.
package broadcast

import "context"

// EventHookDelivery is the message type of a DeliveryEvent.
const EventHookDelivery = "hook.delivery"

// Delivery outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// DeliveryEvent describes one outbound hook post attempt.
type DeliveryEvent struct {
	HookID     string `json:"hook_id"`
	HookType   string `json:"hook_type"`
	ProjectID  string `json:"project_id"`
	RunID      string `json:"run_id"`
	Event      string `json:"event"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Broadcaster receives delivery outcomes.
type Broadcaster interface {
	HookDelivery(ctx context.Context, ev DeliveryEvent)
}
