package analysis

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/skyradar/reqcover/internal/logger"
)

// Runner processes analysis units concurrently. Units share no mutable
// state, so the only coordination point is the result slice: one slot per
// unit, written exactly once, read after all workers complete
type Runner struct {
	workers int
}

// NewRunner creates a runner bounded to the given worker count;
// zero or negative means one worker per available core
func NewRunner(workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{workers: workers}
}

// Run analyzes all units and returns their reports ordered by requirement
// ID, independent of completion order. A unit that fails to analyze yields
// a report with its Error set; it never aborts the batch
func (r *Runner) Run(ctx context.Context, units []Unit) []*Report {
	reports := make([]*Report, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				reports[i] = &Report{
					RequirementID: u.Requirement.ID,
					Title:         u.Requirement.Title,
					Error:         err.Error(),
				}
				return nil
			}
			reports[i] = AnalyzeUnit(u)
			if reports[i].Failed() {
				logger.Warn("unit could not be analyzed",
					"requirement", u.Requirement.ID, "error", reports[i].Error)
			}
			return nil
		})
	}
	// workers never return errors; findings and unit failures live in the reports
	_ = g.Wait()

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].RequirementID < reports[j].RequirementID
	})
	return reports
}
