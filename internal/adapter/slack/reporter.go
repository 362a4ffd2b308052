// Package slack implements a reporter.Reporter for Slack incoming webhooks.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/delivery"
	"github.com/Strob0t/runhooks/internal/port/reporter"
)

const hookType = hook.TypeSlack

const (
	colorSuccess = "#0E8A16"
	colorFailure = "#AB1616"
	colorInfo    = "#EAC358"
)

// Block Kit limits.
const (
	maxHeader      = 150
	maxSectionText = 3000
	maxField       = 2000
	maxFallback    = 3000
)

// Reporter posts Block Kit run status messages to a Slack webhook.
type Reporter struct {
	poster       delivery.Poster
	dashboardURL string
}

// NewReporter creates a Slack reporter.
func NewReporter(poster delivery.Poster, dashboardURL string) *Reporter {
	return &Reporter{poster: poster, dashboardURL: dashboardURL}
}

var _ reporter.Reporter = (*Reporter)(nil)

func (r *Reporter) Type() hook.Type { return hookType }

// message is the Slack webhook payload. Blocks live in an attachment so the
// color bar can reflect the run outcome.
type message struct {
	Text        string       `json:"text"`
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	Color  string  `json:"color"`
	Blocks []block `json:"blocks"`
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Fields   []text `json:"fields,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Report applies the event, result and branch filters and posts a message.
func (r *Reporter) Report(ctx context.Context, h *hook.Hook, ev *hook.RunEvent) {
	ok, err := hook.ShouldReport(ev.EventType, h, ev.GroupProgress)
	if err != nil {
		slog.Error("unexpected slack result filter", append(h.LogAttrs(), "error", err)...)
		return
	}
	if !ok || !hook.BranchFilterPassed(ev.Run.Branch(), h) {
		return
	}

	body, err := json.Marshal(r.buildMessage(ev))
	if err != nil {
		slog.Error("slack marshal", append(h.LogAttrs(), "error", err)...)
		return
	}

	r.poster.Post(ctx, delivery.Request{
		HookID:    h.ID,
		HookType:  hookType,
		ProjectID: h.ProjectID,
		RunID:     ev.Run.RunID,
		Event:     ev.EventType,
		URL:       h.URL,
		Body:      body,
	})
}

func (r *Reporter) buildMessage(ev *hook.RunEvent) message {
	title, color := titleAndColor(ev)
	runURL := hook.RunURL(r.dashboardURL, ev.Run.RunID)

	branch := ev.Run.Branch()
	if branch == "" {
		branch = "No branch"
	}
	details := []text{
		field("Branch", branch),
		field("Build Id", ev.Run.Meta.CIBuildID),
	}
	if ev.GroupID != "" && ev.GroupID != ev.Run.Meta.CIBuildID {
		details = append(details, field("Group", ev.GroupID))
	}

	blocks := []block{
		{Type: "header", Text: &text{Type: "plain_text", Text: hook.Truncate(title, maxHeader)}},
	}
	if msg := ev.Run.CommitMessage(); msg != "" {
		blocks = append(blocks, block{Type: "section", Text: &text{Type: "mrkdwn", Text: hook.Truncate(msg, maxSectionText)}})
	}
	blocks = append(blocks, block{Type: "section", Fields: details})

	if ev.EventType == hook.EventRunFinish {
		t := ev.GroupProgress.Tests
		blocks = append(blocks, block{Type: "section", Fields: []text{
			{Type: "mrkdwn", Text: fmt.Sprintf("*Passes*\n%d", t.Passes)},
			{Type: "mrkdwn", Text: fmt.Sprintf("*Failures*\n%d", t.Failures)},
			{Type: "mrkdwn", Text: fmt.Sprintf("*Skipped*\n%d", t.Skipped)},
			{Type: "mrkdwn", Text: fmt.Sprintf("*Ignored*\n%d", t.Pending)},
			{Type: "mrkdwn", Text: fmt.Sprintf("*Flaky*\n%d", t.Flaky)},
		}})
	}

	blocks = append(blocks, block{
		Type:     "context",
		Elements: []text{{Type: "mrkdwn", Text: fmt.Sprintf("<%s|View run in dashboard>", runURL)}},
	})

	return message{
		Text:        hook.Truncate(fmt.Sprintf("%s: %s", title, branch), maxFallback),
		Attachments: []attachment{{Color: color, Blocks: blocks}},
	}
}

// field renders a bold label over value, cut to the field limit.
func field(label, value string) text {
	return text{Type: "mrkdwn", Text: hook.Truncate("*"+label+"*\n"+value, maxField)}
}

func titleAndColor(ev *hook.RunEvent) (string, string) {
	switch ev.EventType {
	case hook.EventRunStart:
		return "Run Started", colorInfo
	case hook.EventInstanceStart:
		return "Instance Started", colorInfo
	case hook.EventInstanceFinish:
		return "Instance Finished", colorInfo
	case hook.EventRunTimeout:
		return "⏳ Run Timed Out", colorFailure
	}
	title := "Run Finished"
	if ev.EventType != hook.EventRunFinish {
		title = hook.Label(string(ev.EventType))
	}
	if ev.GroupProgress.IsSuccessful() {
		return title, colorSuccess
	}
	return title, colorFailure
}
