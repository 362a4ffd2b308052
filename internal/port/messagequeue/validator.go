package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Strob0t/runhooks/internal/domain/hook"
)

// Validate checks that data is JSON matching the schema of subject.
// Subjects without a schema only need to be valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}
	if !IsRunEventSubject(subject) {
		return nil
	}

	var ev RunEventPayload
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if err := hook.ValidateRunEvent(&ev); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	// The subject suffix, when it names an event type, must agree with the payload.
	if suffix := strings.TrimPrefix(subject, SubjectRunEvents+"."); hook.Event(suffix).Valid() && hook.Event(suffix) != ev.EventType {
		return fmt.Errorf("schema validation failed for %s: eventType %s does not match subject", subject, ev.EventType)
	}
	return nil
}
