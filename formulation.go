package mdvrp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Formulation builds one MILP model of an MDVRP instance into a Modeler.
type Formulation interface {
	Name() string
	Build(inst *Instance, m Modeler) error
}

// FormulationByName resolves SCF, DL (full MTZ) and DL-CAP (per-depot
// capacity cut only).
func FormulationByName(name string) (Formulation, error) {
	switch name {
	case FORMULATION_SCF:
		return SCF{}, nil
	case FORMULATION_DL:
		return DLMTZ{}, nil
	case FORMULATION_DL_CAP:
		return DLCapacity{}, nil
	}
	return nil, errors.Errorf("unknown formulation %q, possible: {%s,%s,%s}", name, FORMULATION_SCF, FORMULATION_DL, FORMULATION_DL_CAP)
}

func Formulations(names []string) ([]Formulation, error) {
	res := make([]Formulation, 0, len(names))
	for _, name := range names {
		f, err := FormulationByName(name)
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, nil
}

// SCF is the single commodity flow formulation. u_i carries the load
// delivered up to customer i, the chain only runs between customers.
type SCF struct{}

func (SCF) Name() string { return FORMULATION_SCF }

func (SCF) Build(inst *Instance, m Modeler) error {
	xStart, err := addArcVars(inst, m)
	if err != nil {
		return err
	}
	uStart, err := addLoadVars(inst, m)
	if err != nil {
		return err
	}
	if err = setArcObjective(inst, m, xStart); err != nil {
		return err
	}
	if err = addDegreeConstrs(inst, m, xStart); err != nil {
		return err
	}

	Log(LogDebug, "Creating and setting flow constraints u_i + d_j*x_ij <= u_j + Q(1 - x_ij)")
	for i := inst.NumDepots(); i < inst.N(); i++ {
		for j := inst.NumDepots(); j < inst.N(); j++ {
			if i == j {
				continue
			}
			if err = addLoadChainConstr(inst, m, xStart, uStart, i, j, fmt.Sprintf("flow_%d_%d", i, j)); err != nil {
				return err
			}
		}
	}

	Log(LogDebug, "Creating and setting load bounds d_i <= u_i <= Q")
	for i := inst.NumDepots(); i < inst.N(); i++ {
		if err = addLoadBounds(inst, m, uStart, i, "min_capacity", "max_capacity"); err != nil {
			return err
		}
	}

	return addDepotLoadZero(inst, m, uStart)
}

// DLMTZ is the depot-load formulation with pairwise MTZ subtour elimination
// between customers and at most one route leaving and entering each depot.
type DLMTZ struct{}

func (DLMTZ) Name() string { return FORMULATION_DL }

func (DLMTZ) Build(inst *Instance, m Modeler) error {
	xStart, err := addArcVars(inst, m)
	if err != nil {
		return err
	}
	uStart, err := addLoadVars(inst, m)
	if err != nil {
		return err
	}
	if err = setArcObjective(inst, m, xStart); err != nil {
		return err
	}
	if err = addDegreeConstrs(inst, m, xStart); err != nil {
		return err
	}

	Log(LogDebug, "Creating and setting depot constraints sum_j(x_ij) <= 1 and sum_j(x_ji) <= 1")
	for i := 0; i < inst.NumDepots(); i++ {
		var out, in Expr
		for j := inst.NumDepots(); j < inst.N(); j++ {
			out.Add(GetArcIndex(i, j, inst.N(), xStart), 1.0)
			in.Add(GetArcIndex(j, i, inst.N(), xStart), 1.0)
		}
		if err = m.AddConstr(fmt.Sprintf("depot_out_%d", i), out, LessEqual, 1.0); err != nil {
			Log(LogErr, "Error adding depot_out_%d: %s", i, err.Error())
			return err
		}
		if err = m.AddConstr(fmt.Sprintf("depot_in_%d", i), in, LessEqual, 1.0); err != nil {
			Log(LogErr, "Error adding depot_in_%d: %s", i, err.Error())
			return err
		}
	}

	Log(LogDebug, "Creating and setting load bounds and MTZ constraints")
	for i := inst.NumDepots(); i < inst.N(); i++ {
		if err = addLoadBounds(inst, m, uStart, i, "min_load", "max_load"); err != nil {
			return err
		}
		for j := inst.NumDepots(); j < inst.N(); j++ {
			if i == j {
				continue
			}
			if err = addLoadChainConstr(inst, m, xStart, uStart, i, j, fmt.Sprintf("mtz_%d_%d", i, j)); err != nil {
				return err
			}
		}
	}

	return addDepotLoadZero(inst, m, uStart)
}

// DLCapacity keeps only the arc variables and caps the demand a depot serves
// directly. It does not eliminate subtours among customers and is kept as the
// weaker baseline.
type DLCapacity struct{}

func (DLCapacity) Name() string { return FORMULATION_DL_CAP }

func (DLCapacity) Build(inst *Instance, m Modeler) error {
	xStart, err := addArcVars(inst, m)
	if err != nil {
		return err
	}
	if err = setArcObjective(inst, m, xStart); err != nil {
		return err
	}
	if err = addDegreeConstrs(inst, m, xStart); err != nil {
		return err
	}

	Log(LogDebug, "Creating and setting depot capacity constraints sum_j(d_j*x_ij) <= Q")
	for i := 0; i < inst.NumDepots(); i++ {
		var expr Expr
		for j := inst.NumDepots(); j < inst.N(); j++ {
			expr.Add(GetArcIndex(i, j, inst.N(), xStart), float64(inst.Demand(j)))
		}
		if err = m.AddConstr(fmt.Sprintf("depot_cap_%d", i), expr, LessEqual, float64(inst.VehicleCapacity)); err != nil {
			Log(LogErr, "Error adding depot_cap_%d: %s", i, err.Error())
			return err
		}
	}
	return nil
}

// addArcVars adds x_i_j for every ordered pair. Loops x_i_i are kept so the
// block stays a full n x n matrix, but are fixed to 0.
func addArcVars(inst *Instance, m Modeler) (int, error) {
	N := inst.N()
	start := m.NumVars()
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			ub := 1.0
			if i == j {
				ub = 0.0
			}
			if _, err := m.AddVar(fmt.Sprintf("x_%d_%d", i, j), Binary, 0.0, ub); err != nil {
				Log(LogErr, "Error adding variable x_%d_%d: %s", i, j, err.Error())
				return -1, err
			}
		}
	}
	return start, nil
}

func addLoadVars(inst *Instance, m Modeler) (int, error) {
	start := m.NumVars()
	for i := 0; i < inst.N(); i++ {
		if _, err := m.AddVar(fmt.Sprintf("u_%d", i), Continuous, 0.0, Infinity); err != nil {
			Log(LogErr, "Error adding variable u_%d: %s", i, err.Error())
			return -1, err
		}
	}
	return start, nil
}

func setArcObjective(inst *Instance, m Modeler, xStart int) error {
	N := inst.N()
	var obj Expr
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if i == j {
				continue
			}
			obj.Add(GetArcIndex(i, j, N, xStart), inst.Costs[i][j])
		}
	}
	if err := m.SetObjective(obj); err != nil {
		Log(LogErr, "Error setting the objective: %s", err.Error())
		return err
	}
	return nil
}

// addDegreeConstrs makes every customer have exactly one incoming and one
// outgoing arc. Depots stay unrestricted.
func addDegreeConstrs(inst *Instance, m Modeler, xStart int) error {
	N := inst.N()
	Log(LogDebug, "Creating and setting degree constraints sum_i(x_ij) = 1 and sum_i(x_ji) = 1")
	for j := inst.NumDepots(); j < N; j++ {
		var in, out Expr
		for i := 0; i < N; i++ {
			if i == j {
				continue
			}
			in.Add(GetArcIndex(i, j, N, xStart), 1.0)
			out.Add(GetArcIndex(j, i, N, xStart), 1.0)
		}
		if err := m.AddConstr(fmt.Sprintf("in_%d", j), in, Equal, 1.0); err != nil {
			Log(LogErr, "Error adding in_%d: %s", j, err.Error())
			return err
		}
		if err := m.AddConstr(fmt.Sprintf("out_%d", j), out, Equal, 1.0); err != nil {
			Log(LogErr, "Error adding out_%d: %s", j, err.Error())
			return err
		}
	}
	return nil
}

// addLoadChainConstr adds u_i + d_j*x_ij <= u_j + Q(1 - x_ij), written as
// u_i - u_j + (d_j + Q)*x_ij <= Q.
func addLoadChainConstr(inst *Instance, m Modeler, xStart, uStart, i, j int, name string) error {
	Q := float64(inst.VehicleCapacity)
	var expr Expr
	expr.Add(GetNodeIndex(i, uStart), 1.0)
	expr.Add(GetNodeIndex(j, uStart), -1.0)
	expr.Add(GetArcIndex(i, j, inst.N(), xStart), float64(inst.Demand(j))+Q)
	if err := m.AddConstr(name, expr, LessEqual, Q); err != nil {
		Log(LogErr, "Error adding %s: %s", name, err.Error())
		return err
	}
	return nil
}

func addLoadBounds(inst *Instance, m Modeler, uStart, i int, minPrefix, maxPrefix string) error {
	u := Expr{Ind: []int{GetNodeIndex(i, uStart)}, Val: []float64{1.0}}
	name := fmt.Sprintf("%s_%d", minPrefix, i)
	if err := m.AddConstr(name, u, GreaterEqual, float64(inst.Demand(i))); err != nil {
		Log(LogErr, "Error adding %s: %s", name, err.Error())
		return err
	}
	name = fmt.Sprintf("%s_%d", maxPrefix, i)
	if err := m.AddConstr(name, u, LessEqual, float64(inst.VehicleCapacity)); err != nil {
		Log(LogErr, "Error adding %s: %s", name, err.Error())
		return err
	}
	return nil
}

func addDepotLoadZero(inst *Instance, m Modeler, uStart int) error {
	Log(LogDebug, "Creating and setting depot load u_i = 0")
	for i := 0; i < inst.NumDepots(); i++ {
		u := Expr{Ind: []int{GetNodeIndex(i, uStart)}, Val: []float64{1.0}}
		if err := m.AddConstr(fmt.Sprintf("depot_flow_%d", i), u, Equal, 0.0); err != nil {
			Log(LogErr, "Error adding depot_flow_%d: %s", i, err.Error())
			return err
		}
	}
	return nil
}
