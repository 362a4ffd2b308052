package hook

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/Strob0t/runhooks/internal/domain"
)

const maxURLLength = 2048

// reservedHeaders are set by the delivery client on every request.
var reservedHeaders = []string{"Content-Type", "Content-Length", "User-Agent", "Host"}

// FieldError is a validation failure bound to one form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets callers match field errors with errors.Is(err, domain.ErrValidation).
func (e *FieldError) Unwrap() error { return domain.ErrValidation }

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fieldErr("url", "Webhook URL is required")
	}
	if len(raw) > maxURLLength {
		return fieldErr("url", "URL exceeds %d characters", maxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fieldErr("url", "Invalid URL, expected http:// or https://")
	}
	return nil
}

// ValidateResultFilter checks that f is set and known.
func ValidateResultFilter(f ResultFilter) error {
	if f == "" {
		return fieldErr("resultFilter", "Event Filter is required")
	}
	if !f.Valid() {
		return fieldErr("resultFilter", "Unknown result type %q", string(f))
	}
	return nil
}

// ValidateEvents checks that every event is known.
func ValidateEvents(events []Event) error {
	for _, e := range events {
		if !e.Valid() {
			return fieldErr("hookEvents", "Unknown hook event %q", string(e))
		}
	}
	return nil
}

func validateHeaders(headers map[string]string) error {
	for name := range headers {
		if strings.TrimSpace(name) == "" {
			return fieldErr("headers", "Header name must not be empty")
		}
		for _, r := range name {
			if unicode.IsSpace(r) || unicode.IsControl(r) || r == ':' {
				return fieldErr("headers", "Invalid header name %q", name)
			}
		}
		for _, reserved := range reservedHeaders {
			if strings.EqualFold(name, reserved) {
				return fieldErr("headers", "Header %q cannot be overridden", reserved)
			}
		}
	}
	return nil
}

// ValidateCreate validates a new hook.
func ValidateCreate(req *CreateRequest) error {
	if !req.Type.Valid() {
		return fieldErr("hookType", "Unknown hook type %q", string(req.Type))
	}
	if err := ValidateURL(req.URL); err != nil {
		return err
	}
	if err := ValidateEvents(req.Events); err != nil {
		return err
	}
	if err := ValidateResultFilter(req.ResultFilter); err != nil {
		return err
	}
	return validateTypeFields(req.Type, req.BranchFilter, req.Headers, req.Secret)
}

// ValidateUpdate validates the set fields of a settings form submission
// against the type of the hook being updated.
func ValidateUpdate(t Type, req *UpdateRequest) error {
	if req.URL != nil {
		if err := ValidateURL(*req.URL); err != nil {
			return err
		}
	}
	if err := ValidateEvents(req.Events); err != nil {
		return err
	}
	if req.ResultFilter != nil {
		if err := ValidateResultFilter(*req.ResultFilter); err != nil {
			return err
		}
	}
	secret := ""
	if req.Secret != nil {
		secret = *req.Secret
	}
	return validateTypeFields(t, req.BranchFilter, req.Headers, secret)
}

func validateTypeFields(t Type, branches []string, headers map[string]string, secret string) error {
	if len(branches) > 0 && t != TypeSlack {
		return fieldErr("branchFilter", "Branch filter is only supported by slack hooks")
	}
	if t != TypeGeneric {
		if len(headers) > 0 {
			return fieldErr("headers", "Custom headers are only supported by generic hooks")
		}
		if secret != "" {
			return fieldErr("secret", "Signing secret is only supported by generic hooks")
		}
		return nil
	}
	return validateHeaders(headers)
}

// ValidateRunEvent checks the fields dispatch relies on.
func ValidateRunEvent(ev *RunEvent) error {
	if !ev.EventType.Valid() {
		return fieldErr("eventType", "Unknown event %q", string(ev.EventType))
	}
	if ev.Run.RunID == "" {
		return fieldErr("run.runId", "Run id is required")
	}
	if ev.Run.Meta.ProjectID == "" {
		return fieldErr("run.meta.projectId", "Project id is required")
	}
	return nil
}
