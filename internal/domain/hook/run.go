package hook

import "strings"

// Commit is the VCS commit a run was started from.
type Commit struct {
	SHA          string `json:"sha,omitempty"`
	Branch       string `json:"branch,omitempty"`
	Message      string `json:"message,omitempty"`
	AuthorName   string `json:"authorName,omitempty"`
	AuthorEmail  string `json:"authorEmail,omitempty"`
	RemoteOrigin string `json:"remoteOrigin,omitempty"`
}

// RunMeta carries the identifying metadata of a run.
type RunMeta struct {
	CIBuildID string  `json:"ciBuildId"`
	ProjectID string  `json:"projectId"`
	Commit    *Commit `json:"commit,omitempty"`
}

// Run is the subset of a CI run a reporter needs.
type Run struct {
	RunID string  `json:"runId"`
	Meta  RunMeta `json:"meta"`
}

// Branch returns the commit branch or "" when the run has no commit info.
func (r Run) Branch() string {
	if r.Meta.Commit == nil {
		return ""
	}
	return r.Meta.Commit.Branch
}

// CommitMessage returns the commit message or "".
func (r Run) CommitMessage() string {
	if r.Meta.Commit == nil {
		return ""
	}
	return r.Meta.Commit.Message
}

// TestsProgress holds aggregated test counts of a run group.
type TestsProgress struct {
	Overall  int `json:"overall"`
	Passes   int `json:"passes"`
	Failures int `json:"failures"`
	Pending  int `json:"pending"`
	Skipped  int `json:"skipped"`
	Flaky    int `json:"flaky"`
	Retries  int `json:"retries"`
}

// InstancesProgress holds spec instance completion counts.
type InstancesProgress struct {
	Overall  int `json:"overall"`
	Complete int `json:"complete"`
	Passes   int `json:"passes"`
	Failures int `json:"failures"`
}

// RunGroupProgress is the progress of one run group, aggregated by the director.
type RunGroupProgress struct {
	Instances InstancesProgress `json:"instances"`
	Tests     TestsProgress     `json:"tests"`
}

// IsSuccessful reports whether the group finished without failed or skipped tests.
func (p RunGroupProgress) IsSuccessful() bool {
	return p.Tests.Failures == 0 && p.Tests.Skipped == 0
}

// RunEvent is a single CI run lifecycle notification.
type RunEvent struct {
	EventType     Event            `json:"eventType"`
	Run           Run              `json:"run"`
	GroupID       string           `json:"groupId"`
	GroupProgress RunGroupProgress `json:"groupProgress"`
	Spec          string           `json:"spec,omitempty"`
}

// RunURL returns the dashboard page of a run.
func RunURL(dashboardBase, runID string) string {
	return strings.TrimRight(dashboardBase, "/") + "/run/" + runID
}
