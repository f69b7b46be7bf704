package main

import (
	"math/rand"
	"path/filepath"
	"testing"

	"git.solver4all.com/azaryc2s/mdvrp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() genConfig {
	return genConfig{
		name:        "t",
		depots:      3,
		capacity:    40,
		demandMin:   2,
		demandMax:   9,
		xTo:         50,
		yTo:         20,
		costMode:    mdvrp.CostIntegerScaled,
		count:       1,
		customerSet: []int{6},
	}
}

func TestRandomInstance(t *testing.T) {
	cfg := testConfig()
	inst := randomInstance(rand.New(rand.NewSource(7)), cfg, "t_3_6_0.dat", 6)

	assert.Equal(t, 3, inst.NumDepots())
	assert.Equal(t, 6, inst.NumCustomers())
	for _, d := range inst.CustomerDemands {
		assert.GreaterOrEqual(t, d, cfg.demandMin)
		assert.LessOrEqual(t, d, cfg.demandMax)
	}
	for _, c := range append(inst.DepotCoordinates, inst.CustomerCoordinates...) {
		assert.Less(t, c[0], float64(cfg.xTo))
		assert.Less(t, c[1], float64(cfg.yTo))
	}
	for _, c := range inst.DepotCapacities {
		assert.Equal(t, inst.TotalDemand(), c)
	}

	same := randomInstance(rand.New(rand.NewSource(7)), cfg, "t_3_6_0.dat", 6)
	assert.Equal(t, inst, same)
}

func TestGeneratedFileLoads(t *testing.T) {
	cfg := testConfig()
	cfg.depotCap = 100
	inst := randomInstance(rand.New(rand.NewSource(1)), cfg, "gen.dat", 4)
	path := filepath.Join(t.TempDir(), "gen.dat")
	require.NoError(t, writeInstanceFile(path, inst))

	back, err := mdvrp.LoadInstance(path)
	require.NoError(t, err)
	assert.Equal(t, inst.CustomerDemands, back.CustomerDemands)
	assert.Equal(t, []int{100, 100, 100}, back.DepotCapacities)
	assert.Len(t, back.Costs, 7)
}

func TestValidate(t *testing.T) {
	require.NoError(t, testConfig().validate())

	bad := []func(*genConfig){
		func(c *genConfig) { c.depots = 0 },
		func(c *genConfig) { c.capacity = 0 },
		func(c *genConfig) { c.demandMax = 1 },
		func(c *genConfig) { c.demandMax = 41 },
		func(c *genConfig) { c.xTo = 0 },
		func(c *genConfig) { c.costMode = 2 },
		func(c *genConfig) { c.customerSet = []int{-1} },
	}
	for i, mutate := range bad {
		cfg := testConfig()
		mutate(&cfg)
		assert.Error(t, cfg.validate(), "case %d", i)
	}
}
