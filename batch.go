package mdvrp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// Batch solves every instance found in Dirs with every formulation on every
// backend.
type Batch struct {
	Dirs         []string
	Formulations []Formulation
	Backends     []Backend
	Params       SolveParams
	// Workers > 1 spreads instances over that many goroutines. Each worker
	// builds its own models; only the report is shared.
	Workers int
}

// Run fills report and returns the number of instances that could not be
// loaded. Those still get a row per formulation and backend. It only fails when the directories cannot be listed or ctx is done.
func (b *Batch) Run(ctx context.Context, report *Report) (skipped int, err error) {
	files, err := DiscoverInstances(b.Dirs)
	if err != nil {
		return 0, err
	}
	Log(LogInfo, "Found %d instances in %v", len(files), b.Dirs)
	for _, backend := range b.Backends {
		report.Expect(backend.Name())
	}

	failed := make([]bool, len(files))
	if b.Workers <= 1 {
		for idx, file := range files {
			if err := ctx.Err(); err != nil {
				return countTrue(failed), err
			}
			failed[idx] = !b.runInstance(ctx, idx+1, file, report)
		}
		return countTrue(failed), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)
	for idx, file := range files {
		idx, file := idx, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			failed[idx] = !b.runInstance(gctx, idx+1, file, report)
			return nil
		})
	}
	err = g.Wait()
	return countTrue(failed), err
}

// runInstance reports false when the instance could not be loaded.
func (b *Batch) runInstance(ctx context.Context, idx int, file string, report *Report) bool {
	Log(LogInfo, "Processing instance %d: %s", idx, file)
	inst, err := LoadInstance(file)
	if err != nil {
		Log(LogErr, "Couldn't load instance %s (%s): %s. Skipping...", file, ErrorKind(err), err.Error())
		b.reportLoadFailure(file, err, report)
		return false
	}
	Log(LogInfo, "Instance %d: %s, depots: %d, customers: %d, cost matrix: %dx%d",
		idx, inst.Name, inst.NumDepots(), inst.NumCustomers(), len(inst.Costs), len(inst.Costs))
	if maxLvl >= LogSpam {
		Log(LogSpam, "Cost matrix of %s:\n%s", inst.Name, Print2DArray(inst.Costs))
	}

	for _, f := range b.Formulations {
		Log(LogInfo, "Solving %s model...", f.Name())
		for _, backend := range b.Backends {
			if ctx.Err() != nil {
				return true
			}
			start := time.Now()
			out := Solve(ctx, backend, f, inst, b.Params)
			elapsed := time.Since(start)

			if out.Err != nil {
				Log(LogErr, "Instance %s (%s) on %s: %s: %s", inst.Name, f.Name(), backend.Name(), ErrorKind(out.Err), out.Reason)
			}
			Log(LogInfo, "Result of instance %d (%s) on %s: %s in %.2fs, variables: %d, constraints: %d",
				idx, f.Name(), backend.Name(), out.ObjectiveString(), elapsed.Seconds(), out.NumVars, out.NumConstrs)
			report.Add(Result{
				File:        filepath.Base(file),
				Formulation: f.Name(),
				Backend:     backend.Name(),
				Outcome:     out,
				Elapsed:     elapsed,
			})
		}
	}
	return true
}

// reportLoadFailure adds a no-solution row for every formulation and backend
// the file would have been solved with.
func (b *Batch) reportLoadFailure(file string, err error, report *Report) {
	reason := fmt.Sprintf("%s: %s", ErrorKind(err), err.Error())
	for _, f := range b.Formulations {
		for _, backend := range b.Backends {
			report.Add(Result{
				File:        filepath.Base(file),
				Formulation: f.Name(),
				Backend:     backend.Name(),
				Outcome:     Outcome{Status: StatusError, Reason: reason, Err: err},
			})
		}
	}
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
