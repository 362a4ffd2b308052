package messagequeue

import "github.com/Strob0t/runhooks/internal/domain/hook"

// RunEventPayload is the schema for runs.events.* messages: the run event as
// sent by the director.
type RunEventPayload = hook.RunEvent
