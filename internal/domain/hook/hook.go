package hook

import (
	"slices"
	"time"
)

// Hook is a stored hook configuration of a project.
type Hook struct {
	ID           string            `json:"hookId"`
	ProjectID    string            `json:"projectId"`
	Type         Type              `json:"hookType"`
	URL          string            `json:"url"`
	Events       []Event           `json:"hookEvents"`
	ResultFilter ResultFilter      `json:"resultFilter"`
	BranchFilter []string          `json:"branchFilter,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Secret       string            `json:"secret,omitempty"` //nolint:gosec // G117: config field name, not a hardcoded secret
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// LogAttrs returns the hook fields safe to attach to log records.
// The URL is included since it identifies the destination; the secret is not.
func (h *Hook) LogAttrs() []any {
	return []any{
		"hook_id", h.ID,
		"project_id", h.ProjectID,
		"hook_type", string(h.Type),
		"url", h.URL,
		"result_filter", string(h.ResultFilter),
	}
}

// Redacted returns a copy with the signing secret masked, for API responses.
func (h Hook) Redacted() Hook {
	if h.Secret != "" {
		h.Secret = "********"
	}
	return h
}

// CreateRequest is the payload for adding a hook to a project.
type CreateRequest struct {
	Type         Type              `json:"hookType"`
	URL          string            `json:"url"`
	Events       []Event           `json:"hookEvents"`
	ResultFilter ResultFilter      `json:"resultFilter"`
	BranchFilter []string          `json:"branchFilter,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Secret       string            `json:"secret,omitempty"` //nolint:gosec // G117: config field name
}

// UpdateRequest is the settings form submission for an existing hook.
// Nil pointer fields are left unchanged. Version enables optimistic locking
// when non-zero.
type UpdateRequest struct {
	URL          *string           `json:"url,omitempty"`
	Events       []Event           `json:"hookEvents,omitempty"`
	ResultFilter *ResultFilter     `json:"resultFilter,omitempty"`
	BranchFilter []string          `json:"branchFilter,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Secret       *string           `json:"secret,omitempty"` //nolint:gosec // G117: config field name
	Version      int               `json:"version,omitempty"`
}

// Apply copies the set fields of req onto h.
func (req *UpdateRequest) Apply(h *Hook) {
	if req.URL != nil {
		h.URL = *req.URL
	}
	if req.Events != nil {
		h.Events = slices.Clone(req.Events)
	}
	if req.ResultFilter != nil {
		h.ResultFilter = *req.ResultFilter
	}
	if req.BranchFilter != nil {
		h.BranchFilter = slices.Clone(req.BranchFilter)
	}
	if req.Headers != nil {
		h.Headers = req.Headers
	}
	if req.Secret != nil {
		h.Secret = *req.Secret
	}
}
