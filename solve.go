package mdvrp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Backend hands out empty models on one MILP engine.
type Backend interface {
	Name() string
	NewModel(name string) (BackendModel, error)
}

// BackendModel is a model living inside an engine. Optimize blocks for at
// most p.TimeLimit and reports the status, the incumbent objective and the
// best bound. The objective is only meaningful for StatusOptimal and
// StatusFeasible.
type BackendModel interface {
	Modeler
	Optimize(ctx context.Context, p SolveParams) (status SolveStatus, obj float64, bound float64, err error)
	Free()
}

// LPWriter is implemented by backend models that can dump themselves.
type LPWriter interface {
	WriteLPFile(path string) error
}

// SolutionReader is implemented by backend models that expose the values of
// the incumbent, indexed like the variables.
type SolutionReader interface {
	Solution() ([]float64, error)
}

// Solve builds f for inst on backend and optimizes it. It never panics out
// and never returns an error: failures end up in Outcome.Err with no
// objective.
func Solve(ctx context.Context, backend Backend, f Formulation, inst *Instance, p SolveParams) (out Outcome) {
	fail := func(status SolveStatus, err error) Outcome {
		out.Status = status
		out.HasObjective = false
		out.Err = &SolveError{Instance: inst.Name, Formulation: f.Name(), Backend: backend.Name(), Err: err}
		out.Reason = err.Error()
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out = fail(StatusError, errors.Errorf("backend panicked: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(StatusError, err)
	}

	modelName := fmt.Sprintf("%s_%s", f.Name(), strings.TrimSuffix(inst.Name, INSTANCE_EXT))
	model, err := backend.NewModel(modelName)
	if err != nil {
		return fail(StatusError, errors.Wrap(err, "couldn't create model"))
	}
	defer model.Free()

	if err = f.Build(inst, model); err != nil {
		out.NumVars, out.NumConstrs = model.NumVars(), model.NumConstrs()
		return fail(StatusError, errors.Wrap(err, "couldn't build model"))
	}
	out.NumVars, out.NumConstrs = model.NumVars(), model.NumConstrs()
	Log(LogDebug, "Built %s with %d variables and %d constraints on %s", modelName, out.NumVars, out.NumConstrs, backend.Name())

	if p.LPDir != "" {
		if w, ok := model.(LPWriter); ok {
			lpName := filepath.Join(p.LPDir, fmt.Sprintf("%s_%s.lp", modelName, backend.Name()))
			if err := w.WriteLPFile(lpName); err != nil {
				Log(LogErr, "At %s: %s", lpName, err.Error())
			}
		}
	}

	status, obj, bound, err := model.Optimize(ctx, p)
	if err != nil {
		return fail(StatusError, errors.Wrap(err, "optimization failed"))
	}
	out.Status = status
	out.Bound = bound
	switch status {
	case StatusOptimal, StatusFeasible:
		out.HasObjective = true
		out.Objective = obj
	case StatusInfeasible:
		out.Reason = "model is infeasible"
	case StatusTimeLimit:
		out.Reason = "time limit reached without a solution"
	default:
		out.Reason = fmt.Sprintf("optimization stopped with status %s", status)
	}
	if !out.HasObjective {
		out.Err = &SolveError{Instance: inst.Name, Formulation: f.Name(), Backend: backend.Name(), Err: errors.New(out.Reason)}
		return out
	}
	if r, ok := model.(SolutionReader); ok {
		captureRoutes(inst, r, modelName, &out)
	}
	return out
}

// captureRoutes only logs what it finds, a solution that can't be read back
// keeps its objective.
func captureRoutes(inst *Instance, r SolutionReader, modelName string, out *Outcome) {
	solA, err := r.Solution()
	if err != nil {
		Log(LogDebug, "Couldn't read the solution of %s: %s", modelName, err.Error())
		return
	}
	if len(solA) < inst.N()*inst.N() {
		Log(LogDebug, "Solution of %s has only %d values", modelName, len(solA))
		return
	}
	routes, subtours, err := ExtractRoutes(inst, ExtractArcMatrix(solA, inst.N(), 0))
	if err != nil {
		Log(LogErr, "Couldn't extract the routes of %s: %s", modelName, err.Error())
		return
	}
	out.Routes, out.Subtours = routes, subtours
	valid, comment := CheckSolutionValidity(inst, routes, subtours, out.Objective)
	if !valid {
		Log(LogInfo, "%s: %s", modelName, comment)
		return
	}
	Log(LogDebug, "The computed solution of %s is valid! Routes: %v", modelName, routes)
}
