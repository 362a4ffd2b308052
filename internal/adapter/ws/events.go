package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/runhooks/internal/port/broadcast"
)

// BroadcastEvent marshals payload and sends it to clients of projectID.
func (h *Hub) BroadcastEvent(ctx context.Context, projectID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.BroadcastToProject(ctx, projectID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// HookDelivery broadcasts a delivery result to the hook's project.
func (h *Hub) HookDelivery(ctx context.Context, ev broadcast.DeliveryEvent) {
	h.BroadcastEvent(ctx, ev.ProjectID, broadcast.EventHookDelivery, ev)
}
