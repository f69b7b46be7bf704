package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"git.solver4all.com/azaryc2s/mdvrp"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

type genConfig struct {
	name        string
	depots      int
	capacity    int
	depotCap    int
	demandMin   int
	demandMax   int
	xTo, yTo    int
	costMode    mdvrp.CostMode
	count       int
	outputDir   string
	customerSet []int
}

func main() {
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "generator"
	app.Usage = "Generate random MDVRP instances in the .dat layout"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "name", Value: "mdvrp", Usage: "Name prefix for the instances"},
		cli.IntFlag{Name: "depots", Value: 2, Usage: "Number of depots"},
		cli.IntSliceFlag{Name: "customers", Usage: "Number of customers, repeatable. Default 10"},
		cli.IntFlag{Name: "count", Value: 1, Usage: "Number of instances per customer count"},
		cli.IntFlag{Name: "capacity", Value: 100, Usage: "Vehicle capacity"},
		cli.IntFlag{Name: "depot-capacity", Value: 0, Usage: "Capacity of each depot, 0 for the total demand"},
		cli.IntFlag{Name: "demand-min", Value: 1, Usage: "The lowest customer demand"},
		cli.IntFlag{Name: "demand-max", Value: 25, Usage: "The highest customer demand"},
		cli.IntFlag{Name: "x", Value: 100, Usage: "Max value on the x-axis"},
		cli.IntFlag{Name: "y", Value: 100, Usage: "Max value on the y-axis"},
		cli.IntFlag{Name: "cost-mode", Value: int(mdvrp.CostIntegerScaled), Usage: "0 for integer costs scaled by 100, 1 for raw euclidean costs"},
		cli.Int64Flag{Name: "seed", Value: 0, Usage: "Seed for the random numbers, 0 uses the current time"},
		cli.StringFlag{Name: "output", Value: ".", Usage: "Output directory", EnvVar: "MDVRP_GEN_OUTPUT"},
	}
	app.Action = generate

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}

func generate(c *cli.Context) error {
	mdvrp.InitLoggers(mdvrp.LogInfo)
	defer mdvrp.SyncLoggers()

	cfg := genConfig{
		name:        c.String("name"),
		depots:      c.Int("depots"),
		capacity:    c.Int("capacity"),
		depotCap:    c.Int("depot-capacity"),
		demandMin:   c.Int("demand-min"),
		demandMax:   c.Int("demand-max"),
		xTo:         c.Int("x"),
		yTo:         c.Int("y"),
		costMode:    mdvrp.CostMode(c.Int("cost-mode")),
		count:       c.Int("count"),
		outputDir:   c.String("output"),
		customerSet: c.IntSlice("customers"),
	}
	if len(cfg.customerSet) == 0 {
		cfg.customerSet = []int{10}
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.outputDir, 0755); err != nil {
		return &mdvrp.IOError{Path: cfg.outputDir, Err: err}
	}

	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	mdvrp.Log(mdvrp.LogInfo, "Generating with seed %d", seed)

	for l := 0; l < cfg.count; l++ {
		for _, customers := range cfg.customerSet {
			instName := fmt.Sprintf("%s_%d_%d_%d%s", cfg.name, cfg.depots, customers, l, mdvrp.INSTANCE_EXT)
			inst := randomInstance(rng, cfg, instName, customers)
			fileName := filepath.Join(cfg.outputDir, instName)
			if err := writeInstanceFile(fileName, inst); err != nil {
				return err
			}
			mdvrp.Log(mdvrp.LogInfo, "Wrote %s with %d depots and %d customers, total demand %d", fileName, cfg.depots, customers, inst.TotalDemand())
		}
	}
	return nil
}

func (cfg genConfig) validate() error {
	if cfg.depots <= 0 {
		return errors.Errorf("need at least one depot, got %d", cfg.depots)
	}
	if cfg.capacity <= 0 {
		return errors.Errorf("vehicle capacity must be positive, got %d", cfg.capacity)
	}
	if cfg.demandMin < 0 || cfg.demandMax < cfg.demandMin {
		return errors.Errorf("invalid demand range [%d,%d]", cfg.demandMin, cfg.demandMax)
	}
	if cfg.demandMax > cfg.capacity {
		return errors.Errorf("demands up to %d can't be served with capacity %d", cfg.demandMax, cfg.capacity)
	}
	if cfg.xTo <= 0 || cfg.yTo <= 0 {
		return errors.Errorf("invalid coordinate range %dx%d", cfg.xTo, cfg.yTo)
	}
	if cfg.costMode != mdvrp.CostIntegerScaled && cfg.costMode != mdvrp.CostRawFloat {
		return errors.Errorf("unsupported cost mode %d", cfg.costMode)
	}
	for _, n := range cfg.customerSet {
		if n < 0 {
			return errors.Errorf("negative customer count %d", n)
		}
	}
	return nil
}

func randomInstance(rng *rand.Rand, cfg genConfig, name string, customers int) *mdvrp.Instance {
	point := func() [2]float64 {
		return [2]float64{float64(rng.Intn(cfg.xTo)), float64(rng.Intn(cfg.yTo))}
	}
	inst := &mdvrp.Instance{
		Name:                name,
		DepotCoordinates:    make([][2]float64, cfg.depots),
		CustomerCoordinates: make([][2]float64, customers),
		VehicleCapacity:     cfg.capacity,
		DepotCapacities:     make([]int, cfg.depots),
		CustomerDemands:     make([]int, customers),
		CostMode:            cfg.costMode,
	}
	for i := range inst.DepotCoordinates {
		inst.DepotCoordinates[i] = point()
	}
	for i := range inst.CustomerCoordinates {
		inst.CustomerCoordinates[i] = point()
		inst.CustomerDemands[i] = cfg.demandMin + rng.Intn(cfg.demandMax-cfg.demandMin+1)
	}
	depotCap := cfg.depotCap
	if depotCap <= 0 {
		depotCap = inst.TotalDemand()
	}
	for i := range inst.DepotCapacities {
		inst.DepotCapacities[i] = depotCap
	}
	return inst
}

func writeInstanceFile(fileName string, inst *mdvrp.Instance) error {
	f, err := os.Create(fileName)
	if err != nil {
		return &mdvrp.IOError{Path: fileName, Err: err}
	}
	w := bufio.NewWriter(f)
	if err = mdvrp.WriteInstance(w, inst); err == nil {
		err = w.Flush()
	}
	if err != nil {
		f.Close()
		return &mdvrp.IOError{Path: fileName, Err: err}
	}
	return f.Close()
}
