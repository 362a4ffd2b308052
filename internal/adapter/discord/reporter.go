// Package discord implements a reporter.Reporter for Discord incoming webhooks.
package discord

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/Strob0t/runhooks/internal/domain/hook"
	"github.com/Strob0t/runhooks/internal/port/delivery"
	"github.com/Strob0t/runhooks/internal/port/reporter"
)

// Embed colors.
const (
	colorSuccess = 0x0E8A16
	colorFailure = 0xAB1616
	colorInfo    = 0xEAC358
)

// Discord embed limits.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldValue  = 1024
)

// Reporter posts run status embeds to a Discord webhook.
type Reporter struct {
	poster       delivery.Poster
	dashboardURL string
}

// NewReporter creates a Discord reporter.
func NewReporter(poster delivery.Poster, dashboardURL string) *Reporter {
	return &Reporter{poster: poster, dashboardURL: dashboardURL}
}

var _ reporter.Reporter = (*Reporter)(nil)

const hookType = hook.TypeDiscord

func (r *Reporter) Type() hook.Type { return hookType }

// webhookPayload is the Discord webhook payload with embeds.
type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Report checks the hook filters and posts an embed for ev.
func (r *Reporter) Report(ctx context.Context, h *hook.Hook, ev *hook.RunEvent) {
	ok, err := hook.ShouldReport(ev.EventType, h, ev.GroupProgress)
	if err != nil {
		slog.Error("unexpected discord result filter", append(h.LogAttrs(), "error", err)...)
		return
	}
	if !ok {
		slog.Debug("discord hook filtered event", append(h.LogAttrs(), "event", string(ev.EventType))...)
		return
	}

	body, err := json.Marshal(webhookPayload{Embeds: []embed{r.buildEmbed(ev)}})
	if err != nil {
		slog.Error("discord marshal", append(h.LogAttrs(), "error", err)...)
		return
	}

	r.poster.Post(ctx, delivery.Request{
		HookID:    h.ID,
		HookType:  hook.TypeDiscord,
		ProjectID: h.ProjectID,
		RunID:     ev.Run.RunID,
		Event:     ev.EventType,
		URL:       h.URL,
		Body:      body,
	})
}

func (r *Reporter) buildEmbed(ev *hook.RunEvent) embed {
	ciBuildID := ev.Run.Meta.CIBuildID

	color := colorFailure
	if ev.GroupProgress.IsSuccessful() {
		color = colorSuccess
	}

	var title string
	switch ev.EventType {
	case hook.EventRunStart:
		title, color = "Run Started", colorInfo
	case hook.EventInstanceStart:
		title, color = "Instance Started", colorInfo
	case hook.EventInstanceFinish:
		title, color = "Instance Finished", colorInfo
	case hook.EventRunFinish:
		title = "Run Finished"
	case hook.EventRunTimeout:
		title, color = "⏳ Run Timed Out", colorFailure
	default:
		title = hook.Label(string(ev.EventType))
	}

	branch := ev.Run.Branch()
	if branch == "" {
		branch = "No branch"
	}

	fields := []field{
		{Name: "Branch", Value: hook.Truncate(branch, maxFieldValue)},
		{Name: "Build Id", Value: hook.Truncate(ciBuildID, maxFieldValue)},
	}
	if ev.GroupID != "" && ev.GroupID != ciBuildID {
		fields = append(fields, field{Name: "Group", Value: hook.Truncate(ev.GroupID, maxFieldValue)})
	}

	if ev.EventType == hook.EventRunFinish {
		t := ev.GroupProgress.Tests
		fields = append(fields,
			field{Name: "Passes", Value: strconv.Itoa(t.Passes), Inline: true},
			field{Name: "Failures", Value: strconv.Itoa(t.Failures), Inline: true},
			field{Name: "Skipped", Value: strconv.Itoa(t.Skipped), Inline: true},
			field{Name: "Ignored", Value: strconv.Itoa(t.Pending), Inline: true},
			field{Name: "Flaky", Value: strconv.Itoa(t.Flaky), Inline: true},
		)
	}

	return embed{
		Title:       hook.Truncate(title, maxTitle),
		Description: hook.Truncate(ev.Run.CommitMessage(), maxDescription),
		URL:         hook.RunURL(r.dashboardURL, ev.Run.RunID),
		Color:       color,
		Fields:      fields,
	}
}
