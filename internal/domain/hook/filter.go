package hook

import "slices"

// EventFilterPassed reports whether h subscribes to event. A hook without
// configured events subscribes to all of them.
func EventFilterPassed(event Event, h *Hook) bool {
	if len(h.Events) == 0 {
		return true
	}
	return slices.Contains(h.Events, event)
}

// BranchFilterPassed reports whether branch is selected by the hook's branch
// filter. An empty filter selects every branch.
func BranchFilterPassed(branch string, h *Hook) bool {
	if len(h.BranchFilter) == 0 {
		return true
	}
	return slices.Contains(h.BranchFilter, branch)
}

// ShouldReport combines the event and result filters. The event filter is
// checked first, so an unknown result filter only surfaces as an error for
// events the hook subscribes to.
func ShouldReport(event Event, h *Hook, progress RunGroupProgress) (bool, error) {
	if !EventFilterPassed(event, h) {
		return false, nil
	}
	return h.ResultFilter.Matches(progress.Tests)
}
