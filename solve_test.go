package mdvrp

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend keeps models in memory and answers Optimize with a fixed
// outcome.
type fakeBackend struct {
	name      string
	status    SolveStatus
	obj       float64
	optErr    error
	newErr    error
	panicMsg  string
	failAfter int // AddConstr fails once this many rows exist, 0 never
	solution  []float64

	freed  int32
	solved int32
}

type fakeModel struct {
	*LinearModel
	b *fakeBackend
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) NewModel(name string) (BackendModel, error) {
	if b.newErr != nil {
		return nil, b.newErr
	}
	return &fakeModel{LinearModel: NewLinearModel(name), b: b}, nil
}

func (m *fakeModel) AddConstr(name string, expr Expr, sense Sense, rhs float64) error {
	if m.b.failAfter > 0 && m.NumConstrs() >= m.b.failAfter {
		return errors.Errorf("row limit reached at %s", name)
	}
	return m.LinearModel.AddConstr(name, expr, sense, rhs)
}

func (m *fakeModel) Optimize(ctx context.Context, p SolveParams) (SolveStatus, float64, float64, error) {
	atomic.AddInt32(&m.b.solved, 1)
	if m.b.panicMsg != "" {
		panic(m.b.panicMsg)
	}
	if m.b.optErr != nil {
		return StatusError, 0, 0, m.b.optErr
	}
	return m.b.status, m.b.obj, m.b.obj, nil
}

func (m *fakeModel) Solution() ([]float64, error) {
	if m.b.solution == nil {
		return nil, errors.New("no values")
	}
	return m.b.solution, nil
}

func (m *fakeModel) Free() { atomic.AddInt32(&m.b.freed, 1) }

func TestSolveOptimal(t *testing.T) {
	inst := parse(t, e2eInstance)
	b := &fakeBackend{name: "fake", status: StatusOptimal, obj: 3414}

	out := Solve(context.Background(), b, SCF{}, inst, SolveParams{})
	require.NoError(t, out.Err)
	assert.Equal(t, StatusOptimal, out.Status)
	assert.True(t, out.HasObjective)
	assert.Equal(t, 3414.0, out.Objective)
	assert.Equal(t, "3414", out.ObjectiveString())
	assert.Equal(t, 12, out.NumVars)
	assert.Equal(t, 11, out.NumConstrs)
	assert.Empty(t, out.Reason)
	assert.Equal(t, int32(1), b.freed)
}

func TestSolveCapturesRoutes(t *testing.T) {
	inst := parse(t, e2eInstance)
	m := build(t, SCF{}, inst)
	b := &fakeBackend{name: "fake", status: StatusOptimal, obj: 3414,
		solution: assign(t, m, map[string]float64{"x_0_1": 1, "x_1_2": 1, "x_2_0": 1, "u_1": 5, "u_2": 10})}

	out := Solve(context.Background(), b, SCF{}, inst, SolveParams{})
	require.NoError(t, out.Err)
	require.Len(t, out.Routes, 1)
	assert.Equal(t, []int{1, 2}, out.Routes[0].Customers)
	assert.Empty(t, out.Subtours)

	// a subtour is reported but keeps the objective
	b = &fakeBackend{name: "fake", status: StatusOptimal, obj: 2828,
		solution: assign(t, build(t, DLCapacity{}, inst), map[string]float64{"x_1_2": 1, "x_2_1": 1})}
	out = Solve(context.Background(), b, DLCapacity{}, inst, SolveParams{})
	require.NoError(t, out.Err)
	assert.True(t, out.HasObjective)
	assert.Empty(t, out.Routes)
	assert.Equal(t, [][]int{{1, 2}}, out.Subtours)
}

func TestSolveFeasibleKeepsIncumbent(t *testing.T) {
	inst := parse(t, e2eInstance)
	b := &fakeBackend{name: "fake", status: StatusFeasible, obj: 4000.5}

	out := Solve(context.Background(), b, DLMTZ{}, inst, SolveParams{})
	require.NoError(t, out.Err)
	assert.True(t, out.HasObjective)
	assert.Equal(t, "4000.5", out.ObjectiveString())
}

func TestSolveWithoutSolution(t *testing.T) {
	inst := parse(t, e2eInstance)
	tests := []struct {
		name    string
		backend *fakeBackend
		status  SolveStatus
	}{
		{"infeasible", &fakeBackend{name: "fake", status: StatusInfeasible}, StatusInfeasible},
		{"time limit", &fakeBackend{name: "fake", status: StatusTimeLimit}, StatusTimeLimit},
		{"optimize error", &fakeBackend{name: "fake", optErr: errors.New("license expired")}, StatusError},
		{"panic", &fakeBackend{name: "fake", panicMsg: "engine crashed"}, StatusError},
		{"no model", &fakeBackend{name: "fake", newErr: errors.New("no environment")}, StatusError},
		{"build error", &fakeBackend{name: "fake", status: StatusOptimal, failAfter: 3}, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Outcome
			require.NotPanics(t, func() {
				out = Solve(context.Background(), tt.backend, SCF{}, inst, SolveParams{})
			})
			assert.Equal(t, tt.status, out.Status)
			assert.False(t, out.HasObjective)
			assert.Zero(t, out.Objective)
			assert.Equal(t, NO_SOLUTION, out.ObjectiveString())
			assert.NotEmpty(t, out.Reason)

			var se *SolveError
			require.True(t, errors.As(out.Err, &se))
			assert.Equal(t, "test.dat", se.Instance)
			assert.Equal(t, FORMULATION_SCF, se.Formulation)
			assert.Equal(t, "fake", se.Backend)
			assert.Equal(t, "SolveError", ErrorKind(out.Err))
		})
	}
}

func TestSolveBuildErrorKeepsCounts(t *testing.T) {
	inst := parse(t, e2eInstance)
	b := &fakeBackend{name: "fake", status: StatusOptimal, failAfter: 3}

	out := Solve(context.Background(), b, SCF{}, inst, SolveParams{})
	assert.Equal(t, 12, out.NumVars)
	assert.Equal(t, 3, out.NumConstrs)
	assert.Zero(t, b.solved)
	assert.Equal(t, int32(1), b.freed)
}

func TestSolveCancelled(t *testing.T) {
	inst := parse(t, e2eInstance)
	b := &fakeBackend{name: "fake", status: StatusOptimal}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := Solve(ctx, b, SCF{}, inst, SolveParams{})
	assert.False(t, out.HasObjective)
	assert.True(t, errors.Is(out.Err, context.Canceled))
	assert.Zero(t, b.solved)
}

func TestSolveWritesLP(t *testing.T) {
	inst := parse(t, e2eInstance)
	dir := t.TempDir()
	b := &fakeBackend{name: "fake", status: StatusOptimal}

	out := Solve(context.Background(), b, DLCapacity{}, inst, SolveParams{LPDir: dir})
	require.NoError(t, out.Err)

	content, err := os.ReadFile(filepath.Join(dir, "DL-CAP_test_fake.lp"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "depot_cap_0:")
}
