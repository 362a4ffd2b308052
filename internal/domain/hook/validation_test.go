package hook

import (
	"errors"
	"testing"

	"github.com/Strob0t/runhooks/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://discord.com/api/webhooks/1/abc", false},
		{"http://localhost:9000/hook", false},
		{"", true},
		{"   ", true},
		{"discord.com/api/webhooks", true},
		{"ftp://example.com/x", true},
		{"https://", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected error to wrap domain.ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateURLRequiredMessage(t *testing.T) {
	err := ValidateURL("")
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %T", err)
	}
	if fe.Field != "url" || fe.Message != "Webhook URL is required" {
		t.Errorf("unexpected field error %+v", fe)
	}
}

func TestValidateResultFilter(t *testing.T) {
	var fe *FieldError
	if err := ValidateResultFilter(""); !errors.As(err, &fe) || fe.Message != "Event Filter is required" {
		t.Errorf("expected required message, got %v", err)
	}
	if err := ValidateResultFilter("SOMETIMES"); err == nil {
		t.Error("expected unknown filter to fail")
	}
	for _, f := range AllResultFilters {
		if err := ValidateResultFilter(f); err != nil {
			t.Errorf("ValidateResultFilter(%s) = %v", f, err)
		}
	}
}

func TestValidateCreate(t *testing.T) {
	valid := func() CreateRequest {
		return CreateRequest{
			Type:         TypeDiscord,
			URL:          "https://discord.com/api/webhooks/1/abc",
			Events:       []Event{EventRunFinish},
			ResultFilter: ResultAll,
		}
	}

	tests := []struct {
		name      string
		modify    func(*CreateRequest)
		wantField string
	}{
		{"valid", func(*CreateRequest) {}, ""},
		{"unknown type", func(r *CreateRequest) { r.Type = "teams" }, "hookType"},
		{"missing url", func(r *CreateRequest) { r.URL = "" }, "url"},
		{"unknown event", func(r *CreateRequest) { r.Events = []Event{"RUN_PAUSED"} }, "hookEvents"},
		{"missing filter", func(r *CreateRequest) { r.ResultFilter = "" }, "resultFilter"},
		{"branch filter on discord", func(r *CreateRequest) { r.BranchFilter = []string{"main"} }, "branchFilter"},
		{"headers on discord", func(r *CreateRequest) { r.Headers = map[string]string{"X-A": "b"} }, "headers"},
		{"secret on discord", func(r *CreateRequest) { r.Secret = "s3cret" }, "secret"},
		{"branch filter on slack", func(r *CreateRequest) { r.Type = TypeSlack; r.BranchFilter = []string{"main"} }, ""},
		{"headers on generic", func(r *CreateRequest) {
			r.Type = TypeGeneric
			r.Headers = map[string]string{"Authorization": "Bearer x"}
			r.Secret = "s3cret"
		}, ""},
		{"bad header name", func(r *CreateRequest) { r.Type = TypeGeneric; r.Headers = map[string]string{"Bad Name": "x"} }, "headers"},
		{"content type header", func(r *CreateRequest) {
			r.Type = TypeGeneric
			r.Headers = map[string]string{"content-type": "text/plain"}
		}, "headers"},
		{"user agent header", func(r *CreateRequest) { r.Type = TypeGeneric; r.Headers = map[string]string{"User-Agent": "x"} }, "headers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.modify(&req)
			err := ValidateCreate(&req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldError, got %v", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("expected field %q, got %q (%s)", tt.wantField, fe.Field, fe.Message)
			}
		})
	}
}

func TestValidateUpdatePartial(t *testing.T) {
	if err := ValidateUpdate(TypeDiscord, &UpdateRequest{}); err != nil {
		t.Fatalf("empty update should be valid, got %v", err)
	}
	if err := ValidateUpdate(TypeDiscord, &UpdateRequest{URL: ptr("nope")}); err == nil {
		t.Fatal("expected invalid URL to fail")
	}
	if err := ValidateUpdate(TypeDiscord, &UpdateRequest{ResultFilter: ptr(ResultFilter(""))}); err == nil {
		t.Fatal("expected explicit empty filter to fail")
	}
	if err := ValidateUpdate(TypeGeneric, &UpdateRequest{Secret: ptr("abc")}); err != nil {
		t.Fatalf("secret on generic should be valid, got %v", err)
	}
}

func TestUpdateApply(t *testing.T) {
	h := Hook{URL: "https://a.example", ResultFilter: ResultAll, Events: []Event{EventRunStart}}
	req := UpdateRequest{
		URL:          ptr("https://b.example"),
		ResultFilter: ptr(ResultFailed),
	}
	req.Apply(&h)
	if h.URL != "https://b.example" || h.ResultFilter != ResultFailed {
		t.Fatalf("fields not applied: %+v", h)
	}
	if len(h.Events) != 1 || h.Events[0] != EventRunStart {
		t.Fatalf("unset events should be kept, got %v", h.Events)
	}
}

func TestLabelAndOptions(t *testing.T) {
	if got := Label("RUN_START"); got != "Run Start" {
		t.Errorf("Label(RUN_START) = %q", got)
	}
	if got := Label("FLAKES"); got != "Flakes" {
		t.Errorf("Label(FLAKES) = %q", got)
	}

	opts := Options()
	if len(opts.ResultFilters) != 4 || opts.ResultFilters[0].Value != "ALL" {
		t.Fatalf("unexpected result filter options %+v", opts.ResultFilters)
	}
	if len(opts.HookEvents) != len(AllEvents) {
		t.Fatalf("expected %d event options, got %d", len(AllEvents), len(opts.HookEvents))
	}
}

func TestRedacted(t *testing.T) {
	h := Hook{Secret: "topsecret"}
	if h.Redacted().Secret == "topsecret" {
		t.Fatal("secret should be masked")
	}
	if h.Secret != "topsecret" {
		t.Fatal("Redacted must not modify the original")
	}
}

func TestValidateRunEvent(t *testing.T) {
	valid := func() *RunEvent {
		return &RunEvent{
			EventType: EventRunStart,
			Run:       Run{RunID: "r1", Meta: RunMeta{ProjectID: "p1"}},
		}
	}
	tests := []struct {
		name   string
		modify func(*RunEvent)
		field  string
	}{
		{"valid", func(*RunEvent) {}, ""},
		{"unknown event", func(e *RunEvent) { e.EventType = "RUN_PAUSED" }, "eventType"},
		{"missing run id", func(e *RunEvent) { e.Run.RunID = "" }, "run.runId"},
		{"missing project", func(e *RunEvent) { e.Run.Meta.ProjectID = "" }, "run.meta.projectId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid()
			tt.modify(ev)
			err := ValidateRunEvent(ev)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Fatalf("expected field error on %s, got %v", tt.field, err)
			}
		})
	}
}
