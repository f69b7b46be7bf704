package mdvrp

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Route is a path leaving depot Start, serving Customers in order and entering
// depot End. The formulations do not tie End to Start.
type Route struct {
	Start     int
	End       int
	Customers []int
	Load      int
	Cost      float64
}

// ExtractArcMatrix rounds the arc block of a solution vector to a 0/1 matrix.
func ExtractArcMatrix(solA []float64, N int, xStart int) [][]int {
	xMat := make([][]int, N)
	for i := 0; i < N; i++ {
		xMat[i] = make([]int, N)
		for j := 0; j < N; j++ {
			if i != j && solA[GetArcIndex(i, j, N, xStart)] > 0.5 {
				xMat[i][j] = 1
			}
		}
	}
	return xMat
}

// ExtractRoutes follows the used arcs from every depot. Customers that no
// depot reaches form cycles of their own and are returned as subtours.
func ExtractRoutes(inst *Instance, arcs [][]int) (routes []Route, subtours [][]int, err error) {
	N := inst.N()
	if len(arcs) != N {
		return nil, nil, errors.Errorf("arc matrix has %d rows, expected %d", len(arcs), N)
	}
	seen := make([]bool, N)
	successor := func(node int) int {
		for j := 0; j < N; j++ {
			if arcs[node][j] == 1 {
				return j
			}
		}
		return -1
	}

	for d := 0; d < inst.NumDepots(); d++ {
		for first := inst.NumDepots(); first < N; first++ {
			if arcs[d][first] != 1 {
				continue
			}
			r := Route{Start: d, Cost: inst.Costs[d][first]}
			node := first
			for !inst.IsDepot(node) {
				if seen[node] {
					return nil, nil, errors.Errorf("customer %d is visited twice", node)
				}
				seen[node] = true
				r.Customers = append(r.Customers, node)
				r.Load += inst.Demand(node)
				next := successor(node)
				if next < 0 {
					return nil, nil, errors.Errorf("route from depot %d stops at customer %d", d, node)
				}
				r.Cost += inst.Costs[node][next]
				node = next
			}
			r.End = node
			routes = append(routes, r)
		}
	}

	for start := inst.NumDepots(); start < N; start++ {
		if seen[start] {
			continue
		}
		var tour []int
		for node := start; !seen[node]; {
			seen[node] = true
			tour = append(tour, node)
			next := successor(node)
			if next < 0 || inst.IsDepot(next) {
				return nil, nil, errors.Errorf("customer %d is not on a route nor a cycle", node)
			}
			node = next
		}
		subtours = append(subtours, tour)
	}
	return routes, subtours, nil
}

// CheckSolutionValidity reports whether the routes form a valid MDVRP
// solution whose cost matches obj.
func CheckSolutionValidity(inst *Instance, routes []Route, subtours [][]int, obj float64) (bool, string) {
	if len(subtours) > 0 {
		return false, fmt.Sprintf("The computed solution contains %d subtours without a depot: %v", len(subtours), subtours)
	}
	total := 0.0
	served := 0
	for i, r := range routes {
		if r.Load > inst.VehicleCapacity {
			return false, fmt.Sprintf("Route %d from depot %d carries %d but the capacity is %d", i, r.Start, r.Load, inst.VehicleCapacity)
		}
		total += r.Cost
		served += len(r.Customers)
	}
	if served != inst.NumCustomers() {
		return false, fmt.Sprintf("The routes serve %d of %d customers", served, inst.NumCustomers())
	}
	if math.Abs(total-obj) > 1e-6*math.Max(1, math.Abs(obj)) {
		return false, fmt.Sprintf("The routes cost %s but the objective is %s", formatNumber(total), formatNumber(obj))
	}
	return true, ""
}
