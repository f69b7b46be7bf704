// Package cpx runs mdvrp formulations on CPLEX through gpx.
//
// gpx drives a single global CPLEX problem, so solves are serialized on a
// package lock. gpx offers no way to pass a time limit to the engine; the
// limit is enforced by abandoning the wait instead. An abandoned solve keeps
// the lock until CPLEX returns, and solves queued behind it spend their own
// time limit waiting.
package cpx

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"git.solver4all.com/azaryc2s/mdvrp"
	"github.com/go-opt/gpx"
	"github.com/pkg/errors"
)

// CPX_INFBOUND
const infBound = 1e20

var cplexLock sync.Mutex

type Backend struct {
	// Grace is added to the time limit before a running solve is abandoned.
	Grace   time.Duration
	Verbose bool
}

func (b *Backend) Name() string { return mdvrp.BACKEND_CPLEX }

// NewModel buffers the model in memory; CPLEX only sees it in Optimize.
func (b *Backend) NewModel(name string) (mdvrp.BackendModel, error) {
	return &Model{LinearModel: mdvrp.NewLinearModel(name), backend: b}, nil
}

type Model struct {
	*mdvrp.LinearModel
	backend *Backend
	solA    []float64
}

type problem struct {
	name  string
	rows  []gpx.InputRow
	cols  []gpx.InputCol
	elems []gpx.InputElem
	obj   []gpx.InputObjCoef
}

type solveResult struct {
	status mdvrp.SolveStatus
	obj    float64
	solA   []float64
	err    error
}

// translate converts the buffered model into the gpx input lists.
func (m *Model) translate() problem {
	p := problem{name: m.Name}
	for _, v := range m.Vars {
		col := gpx.InputCol{Name: v.Name, BndLo: bound(v.LB), BndUp: bound(v.UB)}
		switch v.Type {
		case mdvrp.Binary:
			col.Type = "B"
		case mdvrp.Integer:
			col.Type = "I"
		default:
			col.Type = "C"
		}
		p.cols = append(p.cols, col)
	}
	for i, c := range m.Constrs {
		row := gpx.InputRow{Name: c.Name, Rhs: c.RHS, RngVal: 0.0}
		switch c.Sense {
		case mdvrp.LessEqual:
			row.Sense = "L"
		case mdvrp.GreaterEqual:
			row.Sense = "G"
		default:
			row.Sense = "E"
		}
		p.rows = append(p.rows, row)
		for k, ind := range c.Expr.Ind {
			p.elems = append(p.elems, gpx.InputElem{RowIndex: i, ColIndex: ind, Value: c.Expr.Val[k]})
		}
	}
	for k, ind := range m.Objective.Ind {
		if m.Objective.Val[k] == 0 {
			continue
		}
		p.obj = append(p.obj, gpx.InputObjCoef{ColIndex: ind, Value: m.Objective.Val[k]})
	}
	return p
}

func (m *Model) Optimize(ctx context.Context, params mdvrp.SolveParams) (mdvrp.SolveStatus, float64, float64, error) {
	prob := m.translate()
	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan solveResult, 1)
	var started int32
	go func() {
		cplexLock.Lock()
		defer cplexLock.Unlock()
		atomic.StoreInt32(&started, 1)
		if err := solveCtx.Err(); err != nil {
			done <- solveResult{status: mdvrp.StatusError, err: err}
			return
		}
		done <- m.run(prob)
	}()

	var timeout <-chan time.Time
	if params.TimeLimit > 0 {
		t := time.NewTimer(params.TimeLimit + m.backend.Grace)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case res := <-done:
		m.solA = res.solA
		return res.status, res.obj, res.obj, res.err
	case <-timeout:
		if atomic.LoadInt32(&started) == 0 {
			// never ran: an earlier abandoned solve still holds CPLEX
			mdvrp.Log(mdvrp.LogErr, "TIME_LIMIT for %s is lock starvation, not an engine time limit: CPLEX was busy with an abandoned solve for %s", prob.name, params.TimeLimit+m.backend.Grace)
			return mdvrp.StatusTimeLimit, 0, 0, nil
		}
		mdvrp.Log(mdvrp.LogErr, "CPLEX did not finish %s within %s, abandoning the solve", prob.name, params.TimeLimit)
		return mdvrp.StatusTimeLimit, 0, 0, nil
	case <-ctx.Done():
		return mdvrp.StatusError, 0, 0, ctx.Err()
	}
}

func (m *Model) run(p problem) solveResult {
	fail := func(err error, msg string) solveResult {
		return solveResult{status: mdvrp.StatusError, err: errors.Wrap(err, msg)}
	}
	if err := gpx.CreateProb(p.name); err != nil {
		return fail(err, "couldn't create cplex problem")
	}
	defer func() {
		if err := gpx.CloseCplex(); err != nil {
			mdvrp.Log(mdvrp.LogErr, "Couldn't close cplex: %s", err.Error())
		}
	}()
	if m.backend.Verbose {
		if err := gpx.OutputToScreen(true); err != nil {
			return fail(err, "couldn't enable cplex output")
		}
	}
	if err := gpx.NewRows(p.rows); err != nil {
		return fail(err, "couldn't create rows")
	}
	if err := gpx.NewCols(p.obj, p.cols); err != nil {
		return fail(err, "couldn't create columns")
	}
	if len(p.elems) > 0 {
		if err := gpx.ChgCoefList(p.elems); err != nil {
			return fail(err, "couldn't set coefficients")
		}
	}
	if err := gpx.MipOpt(); err != nil {
		return fail(err, "cplex optimize failed")
	}
	mdvrp.Log(mdvrp.LogDebug, "---OPTIMIZATION DONE---")

	var (
		objVal float64
		sRows  []gpx.SolnRow
		sCols  []gpx.SolnCol
	)
	if err := gpx.GetMipSolution(&objVal, &sRows, &sCols); err != nil {
		return fail(err, "no integer solution available")
	}
	if len(sCols) != len(p.cols) {
		return solveResult{status: mdvrp.StatusOptimal, obj: objVal}
	}
	solA := make([]float64, len(sCols))
	for i, c := range sCols {
		solA[i] = c.Value
	}
	return solveResult{status: mdvrp.StatusOptimal, obj: objVal, solA: solA}
}

func (m *Model) Solution() ([]float64, error) {
	if m.solA == nil {
		return nil, errors.New("cplex returned no column values")
	}
	return m.solA, nil
}

// Free drops the buffered model. CPLEX itself is closed after every solve,
// an abandoned one only works on its translated copy.
func (m *Model) Free() {
	m.LinearModel = nil
}

func bound(v float64) float64 {
	if math.IsInf(v, 1) {
		return infBound
	}
	if math.IsInf(v, -1) {
		return -infBound
	}
	return v
}
