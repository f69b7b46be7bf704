package mdvrp

import "time"

const (
	FORMULATION_SCF    = "SCF"
	FORMULATION_DL     = "DL"
	FORMULATION_DL_CAP = "DL-CAP"
	BACKEND_GUROBI     = "gurobi"
	BACKEND_CPLEX      = "cplex"
	INSTANCE_EXT       = ".dat"
	COST_SCALE         = 100.0
	NO_SOLUTION        = "no solution"
)

// CostMode selects how Euclidean distances become costs. The numeric values
// are the selectors used on the last line of an instance file.
type CostMode int

const (
	CostIntegerScaled CostMode = 0
	CostRawFloat      CostMode = 1
)

func (c CostMode) String() string {
	switch c {
	case CostIntegerScaled:
		return "INTEGER_SCALED"
	case CostRawFloat:
		return "RAW_FLOAT"
	}
	return "UNKNOWN"
}

// Instance is a parsed MDVRP instance. Depots take node indices
// [0, NumDepots()) and customers take [NumDepots(), N()).
type Instance struct {
	Name                string
	DepotCoordinates    [][2]float64
	CustomerCoordinates [][2]float64
	VehicleCapacity     int
	DepotCapacities     []int
	CustomerDemands     []int
	CostMode            CostMode
	Costs               [][]float64
}

func (inst *Instance) NumDepots() int    { return len(inst.DepotCoordinates) }
func (inst *Instance) NumCustomers() int { return len(inst.CustomerCoordinates) }
func (inst *Instance) N() int            { return inst.NumDepots() + inst.NumCustomers() }

func (inst *Instance) IsDepot(node int) bool { return node < inst.NumDepots() }

// Demand returns the demand of a customer node given by its global index.
func (inst *Instance) Demand(node int) int {
	return inst.CustomerDemands[node-inst.NumDepots()]
}

func (inst *Instance) TotalDemand() int {
	sum := 0
	for _, d := range inst.CustomerDemands {
		sum += d
	}
	return sum
}

type SolveStatus int

const (
	StatusUnknown SolveStatus = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusTimeLimit
	StatusError
)

func (s SolveStatus) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusTimeLimit:
		return "TIME_LIMIT"
	case StatusError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// SolveParams is handed to every Optimize call. Nothing about it is kept on
// the backend between calls.
type SolveParams struct {
	TimeLimit time.Duration
	Threads   int
	LPDir     string
}

// Outcome is what the orchestrator makes of a single solve.
type Outcome struct {
	Status       SolveStatus
	HasObjective bool
	Objective    float64
	Bound        float64
	NumVars      int
	NumConstrs   int
	Reason       string
	Err          error
	// Routes and Subtours are only filled when the backend hands out the
	// solution vector.
	Routes   []Route
	Subtours [][]int
}

func (o Outcome) ObjectiveString() string {
	if !o.HasObjective {
		return NO_SOLUTION
	}
	return formatNumber(o.Objective)
}

// Result is one report row.
type Result struct {
	File        string
	Formulation string
	Backend     string
	Outcome     Outcome
	Elapsed     time.Duration
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}
