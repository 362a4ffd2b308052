package messagequeue

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/runhooks/internal/domain"
	"github.com/Strob0t/runhooks/internal/domain/hook"
)

const validRunEvent = `{"eventType":"RUN_FINISH","run":{"runId":"r1","meta":{"ciBuildId":"b1","projectId":"p1"}},"groupId":"b1","groupProgress":{"tests":{"failures":1}}}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr string
	}{
		{"valid", RunEventSubject(hook.EventRunFinish), validRunEvent, ""},
		{"unknown subject any json", "other.subject", `{"x":1}`, ""},
		{"invalid json", RunEventSubject(hook.EventRunFinish), `not-json`, "invalid JSON"},
		{"invalid json other subject", "other.subject", `{`, "invalid JSON"},
		{"wrong types", RunEventSubject(hook.EventRunFinish), `{"eventType":42}`, "schema validation failed"},
		{"empty object", RunEventSubject(hook.EventRunFinish), `{}`, "schema validation failed"},
		{"subject mismatch", RunEventSubject(hook.EventRunStart), validRunEvent, "does not match subject"},
		{"non event suffix", SubjectRunEvents + ".director-1", validRunEvent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateMissingProjectIsValidationError(t *testing.T) {
	err := Validate(RunEventSubject(hook.EventRunStart), []byte(`{"eventType":"RUN_START","run":{"runId":"r1"}}`))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSubjects(t *testing.T) {
	if RunEventSubject(hook.EventRunTimeout) != "runs.events.RUN_TIMEOUT" {
		t.Fatal("unexpected subject")
	}
	if !IsRunEventSubject("runs.events.RUN_START") || IsRunEventSubject("dlq.runs.events.RUN_START") {
		t.Fatal("unexpected subject match")
	}
}
