package mdvrp

import (
	"math"

	"github.com/pkg/errors"
)

type VarType int8

const (
	Continuous VarType = iota
	Binary
	Integer
)

type Sense int8

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	}
	return "?"
}

var Infinity = math.Inf(1)

// Expr is a sparse linear expression over variable indices.
type Expr struct {
	Ind []int
	Val []float64
}

func (e *Expr) Add(ind int, val float64) {
	e.Ind = append(e.Ind, ind)
	e.Val = append(e.Val, val)
}

type Var struct {
	Name string
	Type VarType
	LB   float64
	UB   float64
}

type Constr struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Modeler is everything a formulation needs from a MILP backend. Variables
// are numbered in the order they are added, starting at 0.
type Modeler interface {
	AddVar(name string, vtype VarType, lb, ub float64) (int, error)
	AddConstr(name string, expr Expr, sense Sense, rhs float64) error
	SetObjective(obj Expr) error
	NumVars() int
	NumConstrs() int
}

// LinearModel keeps a model in memory. It backs the CPLEX adapter and the LP
// export and is what the formulation tests inspect.
type LinearModel struct {
	Name      string
	Vars      []Var
	Constrs   []Constr
	Objective Expr

	constrIdx map[string]int
}

func NewLinearModel(name string) *LinearModel {
	return &LinearModel{Name: name, constrIdx: map[string]int{}}
}

func (m *LinearModel) AddVar(name string, vtype VarType, lb, ub float64) (int, error) {
	if lb > ub {
		return -1, errors.Errorf("variable %s has lower bound %v above upper bound %v", name, lb, ub)
	}
	m.Vars = append(m.Vars, Var{Name: name, Type: vtype, LB: lb, UB: ub})
	return len(m.Vars) - 1, nil
}

func (m *LinearModel) AddConstr(name string, expr Expr, sense Sense, rhs float64) error {
	if len(expr.Ind) != len(expr.Val) {
		return errors.Errorf("constraint %s has %d indices but %d values", name, len(expr.Ind), len(expr.Val))
	}
	for _, ind := range expr.Ind {
		if ind < 0 || ind >= len(m.Vars) {
			return errors.Errorf("constraint %s references unknown variable %d", name, ind)
		}
	}
	if _, ok := m.constrIdx[name]; ok && name != "" {
		return errors.Errorf("duplicate constraint name %s", name)
	}
	m.constrIdx[name] = len(m.Constrs)
	m.Constrs = append(m.Constrs, Constr{Name: name, Expr: expr, Sense: sense, RHS: rhs})
	return nil
}

func (m *LinearModel) SetObjective(obj Expr) error {
	for _, ind := range obj.Ind {
		if ind < 0 || ind >= len(m.Vars) {
			return errors.Errorf("objective references unknown variable %d", ind)
		}
	}
	m.Objective = obj
	return nil
}

func (m *LinearModel) NumVars() int    { return len(m.Vars) }
func (m *LinearModel) NumConstrs() int { return len(m.Constrs) }

func (m *LinearModel) Constr(name string) (Constr, bool) {
	i, ok := m.constrIdx[name]
	if !ok {
		return Constr{}, false
	}
	return m.Constrs[i], true
}

func (m *LinearModel) VarIndex(name string) int {
	for i, v := range m.Vars {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// EffectiveBounds intersects the declared bounds of variable v with every
// constraint that involves v alone.
func (m *LinearModel) EffectiveBounds(v int) (lb, ub float64) {
	lb, ub = m.Vars[v].LB, m.Vars[v].UB
	for _, c := range m.Constrs {
		if len(c.Expr.Ind) != 1 || c.Expr.Ind[0] != v || c.Expr.Val[0] == 0 {
			continue
		}
		bound := c.RHS / c.Expr.Val[0]
		sense := c.Sense
		if c.Expr.Val[0] < 0 {
			if sense == LessEqual {
				sense = GreaterEqual
			} else if sense == GreaterEqual {
				sense = LessEqual
			}
		}
		switch sense {
		case LessEqual:
			ub = math.Min(ub, bound)
		case GreaterEqual:
			lb = math.Max(lb, bound)
		case Equal:
			lb = math.Max(lb, bound)
			ub = math.Min(ub, bound)
		}
	}
	return lb, ub
}

// Evaluate returns the objective value of the assignment x and the names of
// the constraints and bounds it violates.
func (m *LinearModel) Evaluate(x []float64) (obj float64, violated []string) {
	const eps = 1e-6
	if len(x) != len(m.Vars) {
		return 0, []string{"dimension"}
	}
	for i, v := range m.Vars {
		if x[i] < v.LB-eps || x[i] > v.UB+eps {
			violated = append(violated, v.Name)
			continue
		}
		if v.Type != Continuous && math.Abs(x[i]-math.Round(x[i])) > eps {
			violated = append(violated, v.Name)
		}
	}
	for _, c := range m.Constrs {
		lhs := 0.0
		for k, ind := range c.Expr.Ind {
			lhs += c.Expr.Val[k] * x[ind]
		}
		ok := true
		switch c.Sense {
		case LessEqual:
			ok = lhs <= c.RHS+eps
		case GreaterEqual:
			ok = lhs >= c.RHS-eps
		case Equal:
			ok = math.Abs(lhs-c.RHS) <= eps
		}
		if !ok {
			violated = append(violated, c.Name)
		}
	}
	for k, ind := range m.Objective.Ind {
		obj += m.Objective.Val[k] * x[ind]
	}
	return obj, violated
}
