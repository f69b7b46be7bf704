package mdvrp

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLPFormulation(t *testing.T) {
	inst := parse(t, e2eInstance)
	m := build(t, SCF{}, inst)

	var buf bytes.Buffer
	require.NoError(t, m.WriteLP(&buf))
	lp := buf.String()

	assert.True(t, strings.HasPrefix(lp, "\\ Problem: SCF\nMinimize\n"))
	assert.Contains(t, lp, " obj: 1000 x_0_1 + 1000 x_0_2 + 1000 x_1_0 + 1414 x_1_2 + 1000 x_2_0 + 1414 x_2_1\n")
	assert.Contains(t, lp, " in_1: x_0_1 + x_2_1 = 1\n")
	assert.Contains(t, lp, " flow_1_2: u_1 - u_2 + 25 x_1_2 <= 20\n")
	assert.Contains(t, lp, " min_capacity_1: u_1 >= 5\n")
	assert.Contains(t, lp, " depot_flow_0: u_0 = 0\n")
	assert.Contains(t, lp, "Bounds\n x_0_0 = 0\n x_1_1 = 0\n x_2_2 = 0\n")
	assert.Contains(t, lp, "Binaries\n  x_0_0 x_0_1 x_0_2 x_1_0 x_1_1 x_1_2 x_2_0 x_2_1\n  x_2_2\n")
	assert.NotContains(t, lp, "Generals")
	assert.True(t, strings.HasSuffix(lp, "End\n"))
}

func TestWriteLPGeneric(t *testing.T) {
	m := NewLinearModel("generic")
	var row Expr
	for i := 0; i < 10; i++ {
		idx, err := m.AddVar(fmt.Sprintf("y%d", i), Continuous, 0, 1.5)
		require.NoError(t, err)
		row.Add(idx, float64(i+1))
	}
	k, err := m.AddVar("k", Integer, math.Inf(-1), 7)
	require.NoError(t, err)
	free, err := m.AddVar("f", Continuous, -2, Infinity)
	require.NoError(t, err)
	require.NoError(t, m.AddConstr("wide", row, GreaterEqual, 3))
	require.NoError(t, m.AddConstr("neg", Expr{Ind: []int{k, free}, Val: []float64{-1, -0.5}}, LessEqual, -1.25))

	var buf bytes.Buffer
	require.NoError(t, m.WriteLP(&buf))
	lp := buf.String()

	assert.Contains(t, lp, " obj: 0\n")
	assert.Contains(t, lp, " wide: y0 + 2 y1 + 3 y2 + 4 y3 + 5 y4 + 6 y5 + 7 y6 + 8 y7\n   + 9 y8 + 10 y9 >= 3\n")
	assert.Contains(t, lp, " neg: - k - 0.5 f <= -1.25\n")
	assert.Contains(t, lp, " 0 <= y0 <= 1.5\n")
	assert.Contains(t, lp, " -inf <= k <= 7\n")
	assert.Contains(t, lp, " f >= -2\n")
	assert.Contains(t, lp, "Generals\n  k\n")
	assert.NotContains(t, lp, "Binaries")
}

func TestWriteLPFile(t *testing.T) {
	inst := parse(t, e2eInstance)
	m := build(t, DLCapacity{}, inst)
	path := filepath.Join(t.TempDir(), "model.lp")

	require.NoError(t, m.WriteLPFile(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), " depot_cap_0: 5 x_0_1 + 5 x_0_2 <= 20\n")

	err = m.WriteLPFile(filepath.Join(t.TempDir(), "missing", "model.lp"))
	assert.Equal(t, "IOError", ErrorKind(err))
}

func TestLinearModelValidation(t *testing.T) {
	m := NewLinearModel("v")
	_, err := m.AddVar("bad", Continuous, 2, 1)
	assert.Error(t, err)

	x, err := m.AddVar("x", Binary, 0, 1)
	require.NoError(t, err)
	assert.Error(t, m.AddConstr("unknown", Expr{Ind: []int{5}, Val: []float64{1}}, Equal, 1))
	assert.Error(t, m.AddConstr("mismatch", Expr{Ind: []int{x}}, Equal, 1))
	require.NoError(t, m.AddConstr("once", Expr{Ind: []int{x}, Val: []float64{1}}, Equal, 1))
	assert.Error(t, m.AddConstr("once", Expr{Ind: []int{x}, Val: []float64{1}}, Equal, 1))
	assert.Error(t, m.SetObjective(Expr{Ind: []int{3}, Val: []float64{1}}))
	assert.Equal(t, 1, m.NumConstrs())

	// -2x <= -1 is x >= 0.5
	require.NoError(t, m.AddConstr("flip", Expr{Ind: []int{x}, Val: []float64{-2}}, LessEqual, -1))
	lb, ub := m.EffectiveBounds(x)
	assert.Equal(t, 1.0, lb)
	assert.Equal(t, 1.0, ub)

	_, violated := m.Evaluate([]float64{0.5})
	assert.Equal(t, []string{"x", "once"}, violated)
}
