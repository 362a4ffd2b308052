// Package generic implements a reporter.Reporter that posts the full run event
// as JSON to an arbitrary HTTP endpoint, optionally signed with HMAC-SHA256.
package generic

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"maps"
	"time"

	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/delivery"
	"github.com/Strob0t/runhooks/internal/port/reporter"
)

const hookType = hook.TypeGeneric

// SignatureHeader carries "sha256=<hex>" of the body when the hook has a secret.
const SignatureHeader = "X-Runhooks-Signature"

// Reporter posts run events to a generic webhook.
type Reporter struct {
	poster       delivery.Poster
	dashboardURL string
	now          func() time.Time
}

// NewReporter creates a generic webhook reporter.
func NewReporter(poster delivery.Poster, dashboardURL string) *Reporter {
	return &Reporter{poster: poster, dashboardURL: dashboardURL, now: time.Now}
}

var _ reporter.Reporter = (*Reporter)(nil)

func (r *Reporter) Type() hook.Type { return hookType }

// payload is the JSON document receivers get: the run event as received,
// plus the fields every reporter derives from it.
type payload struct {
	*hook.RunEvent
	HookEvent  hook.Event `json:"hookEvent"`
	RunURL     string     `json:"runUrl"`
	Successful bool       `json:"successful"`
	SentAt     string     `json:"sentAt"`
}

// Report applies the event and result filters and posts the event.
func (r *Reporter) Report(ctx context.Context, h *hook.Hook, ev *hook.RunEvent) {
	ok, err := hook.ShouldReport(ev.EventType, h, ev.GroupProgress)
	if err != nil {
		slog.Error("unexpected generic hook result filter", append(h.LogAttrs(), "error", err)...)
		return
	}
	if !ok {
		return
	}

	body, err := json.Marshal(payload{
		RunEvent:   ev,
		HookEvent:  ev.EventType,
		RunURL:     hook.RunURL(r.dashboardURL, ev.Run.RunID),
		Successful: ev.GroupProgress.IsSuccessful(),
		SentAt:     r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("generic hook marshal", append(h.LogAttrs(), "error", err)...)
		return
	}

	headers := make(map[string]string, len(h.Headers)+1)
	maps.Copy(headers, h.Headers)
	if h.Secret != "" {
		headers[SignatureHeader] = "sha256=" + Sign(body, h.Secret)
	}

	r.poster.Post(ctx, delivery.Request{
		HookID:    h.ID,
		HookType:  hookType,
		ProjectID: h.ProjectID,
		RunID:     ev.Run.RunID,
		Event:     ev.EventType,
		URL:       h.URL,
		Body:      body,
		Headers:   headers,
	})
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
