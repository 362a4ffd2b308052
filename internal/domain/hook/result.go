package hook

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownResultFilter is returned when a hook carries a result filter
// outside the known set. Such hooks never report.
var ErrUnknownResultFilter = errors.New("unknown result filter")

// ResultFilter selects which run outcomes a hook reports.
type ResultFilter string

const (
	ResultAll        ResultFilter = "ALL"
	ResultFailed     ResultFilter = "FAILED"
	ResultFlakes     ResultFilter = "FLAKES"
	ResultSuccessful ResultFilter = "SUCCESSFUL"
)

// AllResultFilters lists the known filters sorted by name, the order the
// settings form presents them in.
var AllResultFilters = []ResultFilter{
	ResultAll,
	ResultFailed,
	ResultFlakes,
	ResultSuccessful,
}

// Valid reports whether f is a known result filter.
func (f ResultFilter) Valid() bool {
	return slices.Contains(AllResultFilters, f)
}

// Matches reports whether the test counts satisfy the filter.
func (f ResultFilter) Matches(tests TestsProgress) (bool, error) {
	switch f {
	case ResultFailed:
		return tests.Failures > 0, nil
	case ResultFlakes:
		return tests.Flaky > 0, nil
	case ResultSuccessful:
		return tests.Failures == 0, nil
	case ResultAll:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownResultFilter, string(f))
	}
}
