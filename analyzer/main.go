package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"git.solver4all.com/azaryc2s/mdvrp"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "analyzer"
	app.Usage = "Compare result workbooks of several backends"
	app.ArgsUsage = "resultados_cplex.xlsx resultados_gurobi.xlsx ..."
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "log", Value: mdvrp.LogErr, Usage: "Level of the logging output. Range 1-4"},
	}
	app.Action = analyze

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}

func analyze(c *cli.Context) error {
	mdvrp.InitLoggers(c.Int("log"))
	defer mdvrp.SyncLoggers()

	if c.NArg() == 0 {
		return errors.New("no report workbooks passed")
	}
	var reports []*mdvrp.Report
	for _, fileName := range c.Args() {
		r, err := mdvrp.ReadReport(fileName)
		if err != nil {
			mdvrp.Log(mdvrp.LogErr, "Couldn't read %s (%s): %s", fileName, mdvrp.ErrorKind(err), err.Error())
			continue
		}
		mdvrp.Log(mdvrp.LogInfo, "Read %d results of run %s from %s", len(r.Results()), r.RunID, fileName)
		reports = append(reports, r)
	}

	backends, comps := mdvrp.CompareReports(reports...)
	w := csv.NewWriter(os.Stdout)
	header := []string{"File", "Model"}
	for _, b := range backends {
		header = append(header, b+"_Result", b+"_Time", b+"_Status")
	}
	header = append(header, "Gap")
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "couldn't write header")
	}
	for _, comp := range comps {
		rec := []string{comp.File, comp.Formulation}
		for _, b := range backends {
			res, ok := comp.Results[b]
			if !ok {
				rec = append(rec, "", "", "")
				continue
			}
			rec = append(rec, res.Outcome.ObjectiveString(), strconv.FormatFloat(res.Elapsed.Seconds(), 'f', 2, 64), res.Outcome.Status.String())
		}
		if gap, ok := comp.Gap(); ok {
			rec = append(rec, strconv.FormatFloat(math.Round(gap*10000)/10000, 'f', 4, 64))
		} else {
			rec = append(rec, "")
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, "couldn't write row")
		}
	}
	w.Flush()
	return w.Error()
}
