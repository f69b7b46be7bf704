/* Copyright 2021, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"git.solver4all.com/azaryc2s/mdvrp"
	"git.solver4all.com/azaryc2s/mdvrp/cpx"
	"git.solver4all.com/azaryc2s/mdvrp/grb"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var (
	defaultDirs     = []string{"Instancias1", "Instancias2", "Instancias3"}
	defaultModels   = []string{mdvrp.FORMULATION_SCF, mdvrp.FORMULATION_DL}
	defaultBackends = []string{mdvrp.BACKEND_CPLEX, mdvrp.BACKEND_GUROBI}
)

func main() {
	// .env only fills in what the environment doesn't already set
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "solver"
	app.Usage = "Solve every MDVRP instance of the given directories with every model on every backend"
	app.Flags = []cli.Flag{
		cli.StringSliceFlag{Name: "dir", Usage: "Directory with .dat instances, repeatable. Default Instancias1,Instancias2,Instancias3", EnvVar: "MDVRP_DIRS"},
		cli.IntFlag{Name: "time-limit", Value: 1800, Usage: "Time limit per solve in seconds", EnvVar: "MDVRP_TIME_LIMIT"},
		cli.StringSliceFlag{Name: "model", Usage: "Model to solve, repeatable. Possible: {SCF, DL, DL-CAP}. Default SCF,DL", EnvVar: "MDVRP_MODELS"},
		cli.StringSliceFlag{Name: "backend", Usage: "Backend to solve on, repeatable. Possible: {cplex, gurobi}. Default cplex,gurobi", EnvVar: "MDVRP_BACKENDS"},
		cli.StringFlag{Name: "output", Value: ".", Usage: "Directory for the result workbooks and solver logs", EnvVar: "MDVRP_OUTPUT"},
		cli.StringFlag{Name: "csv", Usage: "Additionally write all results to this csv file", EnvVar: "MDVRP_CSV"},
		cli.IntFlag{Name: "workers", Value: 1, Usage: "Number of instances solved in parallel", EnvVar: "MDVRP_WORKERS"},
		cli.IntFlag{Name: "threads", Value: 0, Usage: "Threads per solve, 0 leaves the engine default", EnvVar: "MDVRP_THREADS"},
		cli.StringFlag{Name: "write-lp", Usage: "Directory to dump every built model into as .lp file", EnvVar: "MDVRP_WRITE_LP"},
		cli.IntFlag{Name: "log", Value: mdvrp.LogInfo, Usage: "Level of the logging output. Higher value is more verbose. Range 1-4", EnvVar: "MDVRP_LOG"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	mdvrp.InitLoggers(c.Int("log"))
	defer mdvrp.SyncLoggers()

	formulations, err := mdvrp.Formulations(orDefault(c.StringSlice("model"), defaultModels))
	if err != nil {
		return err
	}
	outDir := c.String("output")
	if err = os.MkdirAll(outDir, 0755); err != nil {
		return &mdvrp.IOError{Path: outDir, Err: err}
	}
	backends, err := makeBackends(orDefault(c.StringSlice("backend"), defaultBackends), outDir, c.Int("log"))
	if err != nil {
		return err
	}
	lpDir := c.String("write-lp")
	if lpDir != "" {
		if err = os.MkdirAll(lpDir, 0755); err != nil {
			return &mdvrp.IOError{Path: lpDir, Err: err}
		}
	}

	timeLimit := time.Duration(c.Int("time-limit")) * time.Second
	batch := mdvrp.Batch{
		Dirs:         orDefault(c.StringSlice("dir"), defaultDirs),
		Formulations: formulations,
		Backends:     backends,
		Params:       mdvrp.SolveParams{TimeLimit: timeLimit, Threads: c.Int("threads"), LPDir: lpDir},
		Workers:      c.Int("workers"),
	}

	sys := mdvrp.CollectSysInfo()
	report := mdvrp.NewReport(timeLimit, sys)
	mdvrp.Log(mdvrp.LogInfo, "Run %s on %s, %s, %s. Time limit: %s", report.RunID, sys.Platform, sys.CPU, sys.RAM, timeLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	skipped, runErr := batch.Run(ctx, report)
	if skipped > 0 {
		mdvrp.Log(mdvrp.LogErr, "%d instances could not be loaded", skipped)
	}
	if runErr != nil {
		mdvrp.Log(mdvrp.LogErr, "Batch stopped early: %s. Writing what was solved so far", runErr.Error())
	}

	// results are written even after an interrupt
	for _, b := range backends {
		fileName := filepath.Join(outDir, fmt.Sprintf("resultados_%s.xlsx", b.Name()))
		if err = report.ForBackend(b.Name()).WriteXLSX(fileName); err != nil {
			mdvrp.Log(mdvrp.LogErr, "At %s: %s", fileName, err.Error())
			continue
		}
		mdvrp.Log(mdvrp.LogInfo, "Results of %s written to %s", b.Name(), fileName)
	}
	if csvName := c.String("csv"); csvName != "" {
		if err = writeCSV(report, csvName); err != nil {
			mdvrp.Log(mdvrp.LogErr, "At %s: %s", csvName, err.Error())
		}
	}
	report.Summary(os.Stdout)
	return runErr
}

func makeBackends(names []string, logDir string, logLvl int) ([]mdvrp.Backend, error) {
	var backends []mdvrp.Backend
	for _, name := range names {
		switch strings.ToLower(name) {
		case mdvrp.BACKEND_GUROBI:
			backends = append(backends, &grb.Backend{LogDir: logDir})
		case mdvrp.BACKEND_CPLEX:
			backends = append(backends, &cpx.Backend{Grace: 30 * time.Second, Verbose: logLvl >= mdvrp.LogSpam})
		default:
			return nil, errors.Errorf("unsupported backend: %s", name)
		}
	}
	return backends, nil
}

func writeCSV(report *mdvrp.Report, fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return &mdvrp.IOError{Path: fileName, Err: err}
	}
	if err = report.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func orDefault(values, def []string) []string {
	if len(values) == 0 {
		return def
	}
	return values
}
