package mdvrp

import (
	"math"
)

// Comparison lines up the results of one (file, model) pair across backends.
type Comparison struct {
	File        string
	Formulation string
	Results     map[string]Result
}

// CompareReports merges reports into one comparison per (file, model) pair,
// ordered by first appearance. The backends are returned in the same order.
func CompareReports(reports ...*Report) (backends []string, comps []*Comparison) {
	seenBackend := map[string]bool{}
	index := map[[2]string]*Comparison{}
	for _, r := range reports {
		for _, res := range r.Results() {
			if !seenBackend[res.Backend] {
				seenBackend[res.Backend] = true
				backends = append(backends, res.Backend)
			}
			key := [2]string{res.File, res.Formulation}
			c, ok := index[key]
			if !ok {
				c = &Comparison{File: res.File, Formulation: res.Formulation, Results: map[string]Result{}}
				index[key] = c
				comps = append(comps, c)
			}
			c.Results[res.Backend] = res
		}
	}
	return backends, comps
}

// Gap is the relative difference between the worst and the best objective
// found by the backends. It needs at least two objectives and a non-zero best.
func (c *Comparison) Gap() (float64, bool) {
	best, worst := math.Inf(1), math.Inf(-1)
	found := 0
	for _, res := range c.Results {
		if !res.Outcome.HasObjective {
			continue
		}
		found++
		best = math.Min(best, res.Outcome.Objective)
		worst = math.Max(worst, res.Outcome.Objective)
	}
	if found < 2 || best == 0 {
		return 0, false
	}
	return (worst - best) / math.Abs(best), true
}
