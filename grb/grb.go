// Package grb runs mdvrp formulations on Gurobi.
package grb

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"git.solver4all.com/azaryc2s/mdvrp"
	"github.com/pkg/errors"
)

// GRB_INFINITY
const infinity = 1e100

// Backend creates one Gurobi environment per model so that parameters never
// leak from one solve into the next.
type Backend struct {
	LogDir string
}

func (b *Backend) Name() string { return mdvrp.BACKEND_GUROBI }

func (b *Backend) NewModel(name string) (mdvrp.BackendModel, error) {
	env, err := gurobi.LoadEnv(filepath.Join(b.LogDir, fmt.Sprintf("%s.gurobi.log", name)))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't load gurobi environment")
	}
	env.SetIntParam("LogToConsole", int32(0))

	model, err := env.NewModel(name, 0, nil, nil, nil, nil, nil)
	if err != nil {
		env.Free()
		return nil, errors.Wrap(err, "couldn't create gurobi model")
	}
	err = model.SetIntAttr(gurobi.INT_ATTR_MODELSENSE, gurobi.MINIMIZE)
	if err != nil {
		model.Free()
		env.Free()
		return nil, errors.Wrap(err, "couldn't set model sense")
	}
	return &Model{env: env, model: model}, nil
}

type Model struct {
	env         *gurobi.Env
	model       *gurobi.Model
	varCount    int
	constrCount int
}

func (m *Model) AddVar(name string, vtype mdvrp.VarType, lb, ub float64) (int, error) {
	err := m.model.AddVar(nil, nil, 0.0, bound(lb), bound(ub), varType(vtype), name)
	if err != nil {
		return -1, errors.Wrapf(err, "couldn't add variable %s", name)
	}
	m.varCount++
	return m.varCount - 1, nil
}

func (m *Model) AddConstr(name string, expr mdvrp.Expr, sense mdvrp.Sense, rhs float64) error {
	err := m.model.AddConstr(gurobi.Int32Slice(expr.Ind), expr.Val, constrSense(sense), rhs, name)
	if err != nil {
		return errors.Wrapf(err, "couldn't add constraint %s", name)
	}
	m.constrCount++
	return nil
}

func (m *Model) SetObjective(obj mdvrp.Expr) error {
	for k, ind := range obj.Ind {
		if err := m.model.SetDblAttrElem("Obj", int32(ind), obj.Val[k]); err != nil {
			return errors.Wrapf(err, "couldn't set objective coefficient of variable %d", ind)
		}
	}
	return nil
}

func (m *Model) NumVars() int    { return m.varCount }
func (m *Model) NumConstrs() int { return m.constrCount }

// WriteLPFile dumps the model through Gurobi, the format follows the file
// extension.
func (m *Model) WriteLPFile(path string) error {
	return errors.Wrapf(m.model.Write(path), "couldn't write %s", path)
}

func (m *Model) Optimize(ctx context.Context, p mdvrp.SolveParams) (mdvrp.SolveStatus, float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return mdvrp.StatusError, 0, 0, err
	}
	if p.TimeLimit > 0 {
		if err := m.model.SetDblParam("TimeLimit", p.TimeLimit.Seconds()); err != nil {
			return mdvrp.StatusError, 0, 0, errors.Wrap(err, "couldn't set time limit")
		}
	}
	if p.Threads > 0 {
		if err := m.model.SetIntParam(gurobi.INT_PAR_THREADS, int32(p.Threads)); err != nil {
			return mdvrp.StatusError, 0, 0, errors.Wrap(err, "couldn't set threads")
		}
	}

	if err := m.model.Optimize(); err != nil {
		return mdvrp.StatusError, 0, 0, errors.Wrap(err, "gurobi optimize failed")
	}
	mdvrp.Log(mdvrp.LogDebug, "---OPTIMIZATION DONE---")

	optimstatus, err := m.model.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		return mdvrp.StatusError, 0, 0, errors.Wrap(err, "couldn't retrieve optimization status")
	}
	solcount, err := m.model.GetIntAttr(gurobi.INT_ATTR_SOLCOUNT)
	if err != nil {
		return mdvrp.StatusError, 0, 0, errors.Wrap(err, "couldn't retrieve solution count")
	}

	var status mdvrp.SolveStatus
	switch {
	case optimstatus == gurobi.OPTIMAL:
		status = mdvrp.StatusOptimal
	case optimstatus == gurobi.INFEASIBLE || optimstatus == gurobi.INF_OR_UNBD:
		return mdvrp.StatusInfeasible, 0, 0, nil
	case solcount > 0:
		status = mdvrp.StatusFeasible
	case optimstatus == gurobi.TIME_LIMIT:
		return mdvrp.StatusTimeLimit, 0, 0, nil
	default:
		return mdvrp.StatusError, 0, 0, errors.Errorf("optimization stopped with gurobi status %d", optimstatus)
	}

	objval, err := m.model.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
	if err != nil {
		return mdvrp.StatusError, 0, 0, errors.Wrap(err, "couldn't retrieve the obj-value")
	}
	lb, err := m.model.GetDblAttr(gurobi.DBL_ATTR_OBJBOUND)
	if err != nil {
		mdvrp.Log(mdvrp.LogDebug, "Couldn't retrieve the lower-bound-value: %s", err.Error())
		lb = objval
	}
	return status, objval, lb, nil
}

func (m *Model) Solution() ([]float64, error) {
	solA, err := m.model.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(m.varCount))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't retrieve the solution")
	}
	return solA, nil
}

func (m *Model) Free() {
	if m.model != nil {
		m.model.Free()
		m.model = nil
	}
	if m.env != nil {
		m.env.Free()
		m.env = nil
	}
}

func bound(v float64) float64 {
	if math.IsInf(v, 1) {
		return infinity
	}
	if math.IsInf(v, -1) {
		return -infinity
	}
	return v
}

func varType(t mdvrp.VarType) int8 {
	switch t {
	case mdvrp.Binary:
		return gurobi.BINARY
	case mdvrp.Integer:
		return gurobi.INTEGER
	}
	return gurobi.CONTINUOUS
}

func constrSense(s mdvrp.Sense) int8 {
	switch s {
	case mdvrp.LessEqual:
		return gurobi.LESS_EQUAL
	case mdvrp.GreaterEqual:
		return gurobi.GREATER_EQUAL
	}
	return gurobi.EQUAL
}
