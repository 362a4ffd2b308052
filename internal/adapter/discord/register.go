package discord

import "github.com/Strob0t/runhooks/internal/port/reporter"

func init() {
	reporter.Register(hookType, func(deps reporter.Deps) reporter.Reporter {
		return NewReporter(deps.Poster, deps.DashboardURL)
	})
}
