package mdvrp

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const runSheet = "Run"

var reportHeader = []string{"File", "Model", "Result", "Time (s)", "Variables", "Constraints", "Status", "Reason"}

// Report collects the results of a batch. Add may be called concurrently.
type Report struct {
	RunID     string
	Started   time.Time
	TimeLimit time.Duration
	System    SysInfo

	mu      sync.Mutex
	results []Result
	// backends get a sheet even when they have no rows
	backends []string
}

func NewReport(timeLimit time.Duration, sys SysInfo) *Report {
	return &Report{RunID: uuid.NewString(), Started: time.Now(), TimeLimit: timeLimit, System: sys}
}

func (r *Report) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns a copy of the rows in the order they were added.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]Result, len(r.results))
	copy(res, r.results)
	return res
}

// Expect registers backends that are reported on even without rows.
func (r *Report) Expect(backends ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = append(r.backends, backends...)
}

// Backends lists the expected backends, then the others in order of first
// appearance.
func (r *Report) Backends() []string {
	r.mu.Lock()
	all := append([]string(nil), r.backends...)
	r.mu.Unlock()
	for _, res := range r.Results() {
		all = append(all, res.Backend)
	}
	var names []string
	seen := map[string]bool{}
	for _, n := range all {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// ByBackend groups the rows per backend, keeping the order they were added in.
func (r *Report) ByBackend() map[string][]Result {
	groups := map[string][]Result{}
	for _, res := range r.Results() {
		groups[res.Backend] = append(groups[res.Backend], res)
	}
	return groups
}

// ForBackend returns a report with the same run data holding only the rows of
// one backend.
func (r *Report) ForBackend(backend string) *Report {
	sub := &Report{RunID: r.RunID, Started: r.Started, TimeLimit: r.TimeLimit, System: r.System, backends: []string{backend}}
	for _, res := range r.Results() {
		if res.Backend == backend {
			sub.results = append(sub.results, res)
		}
	}
	return sub
}

func resultRow(res Result) []interface{} {
	var obj interface{} = NO_SOLUTION
	if res.Outcome.HasObjective {
		obj = res.Outcome.Objective
	}
	return []interface{}{res.File, res.Formulation, obj, res.Elapsed.Seconds(), res.Outcome.NumVars, res.Outcome.NumConstrs, res.Outcome.Status.String(), res.Outcome.Reason}
}

// WriteXLSX writes one sheet per backend plus a sheet describing the run.
func (r *Report) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", runSheet); err != nil {
		return errors.Wrap(err, "couldn't name run sheet")
	}
	runRows := [][]interface{}{
		{"Run ID", r.RunID},
		{"Started", r.Started.Format(time.RFC3339)},
		{"Time limit (s)", r.TimeLimit.Seconds()},
		{"Platform", r.System.Platform},
		{"CPU", r.System.CPU},
		{"RAM", r.System.RAM},
	}
	for i, row := range runRows {
		row := row
		if err := f.SetSheetRow(runSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return errors.Wrap(err, "couldn't write run sheet")
		}
	}

	results := r.Results()
	for _, backend := range r.Backends() {
		idx, err := f.NewSheet(backend)
		if err != nil {
			return errors.Wrapf(err, "couldn't create sheet %s", backend)
		}
		header := make([]interface{}, len(reportHeader))
		for i, h := range reportHeader {
			header[i] = h
		}
		if err = f.SetSheetRow(backend, "A1", &header); err != nil {
			return errors.Wrapf(err, "couldn't write header of %s", backend)
		}
		row := 2
		for _, res := range results {
			if res.Backend != backend {
				continue
			}
			cells := resultRow(res)
			if err = f.SetSheetRow(backend, fmt.Sprintf("A%d", row), &cells); err != nil {
				return errors.Wrapf(err, "couldn't write row %d of %s", row, backend)
			}
			row++
		}
		if row > 2 {
			f.SetActiveSheet(idx)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return &IOError{Path: path, Err: err}
	}
	return nil
}

// WriteCSV writes every row with the backend as leading column.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Backend"}, reportHeader...)); err != nil {
		return errors.Wrap(err, "couldn't write csv header")
	}
	for _, res := range r.Results() {
		rec := []string{
			res.Backend,
			res.File,
			res.Formulation,
			res.Outcome.ObjectiveString(),
			strconv.FormatFloat(res.Elapsed.Seconds(), 'f', 2, 64),
			strconv.Itoa(res.Outcome.NumVars),
			strconv.Itoa(res.Outcome.NumConstrs),
			res.Outcome.Status.String(),
			res.Outcome.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "couldn't write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "couldn't flush csv")
}

// Summary prints the closing listing of a run, numbered per backend.
func (r *Report) Summary(w io.Writer) {
	fmt.Fprintf(w, "\n--- Final results (run %s) ---\n", r.RunID)
	results := r.Results()
	for _, backend := range r.Backends() {
		fmt.Fprintf(w, "Results of %s:\n", backend)
		idx := 1
		for _, res := range results {
			if res.Backend != backend {
				continue
			}
			fmt.Fprintf(w, "Instance %d (%s, %s): Result=%s, Time=%.2f seconds, Variables=%d, Constraints=%d\n",
				idx, res.File, res.Formulation, res.Outcome.ObjectiveString(), res.Elapsed.Seconds(), res.Outcome.NumVars, res.Outcome.NumConstrs)
			idx++
		}
	}
}

// ReadReport loads a workbook written by WriteXLSX.
func ReadReport(path string) (*Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	r := &Report{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read sheet %s of %s", sheet, path)
		}
		if sheet == runSheet {
			readRunRows(r, rows)
			continue
		}
		r.backends = append(r.backends, sheet)
		for i, row := range rows {
			if i == 0 {
				continue
			}
			res, err := parseResultRow(sheet, row)
			if err != nil {
				return nil, &ParseError{File: path, Line: i + 1, Err: errors.Wrapf(err, "sheet %s", sheet)}
			}
			r.results = append(r.results, res)
		}
	}
	return r, nil
}

func readRunRows(r *Report, rows [][]string) {
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		switch row[0] {
		case "Run ID":
			r.RunID = row[1]
		case "Started":
			r.Started, _ = time.Parse(time.RFC3339, row[1])
		case "Time limit (s)":
			if secs, err := strconv.ParseFloat(row[1], 64); err == nil {
				r.TimeLimit = time.Duration(secs * float64(time.Second))
			}
		case "Platform":
			r.System.Platform = row[1]
		case "CPU":
			r.System.CPU = row[1]
		case "RAM":
			r.System.RAM = row[1]
		}
	}
}

func parseResultRow(backend string, row []string) (Result, error) {
	for len(row) < len(reportHeader) {
		row = append(row, "")
	}
	res := Result{Backend: backend, File: row[0], Formulation: row[1]}
	if row[2] != NO_SOLUTION && row[2] != "" {
		obj, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return res, errors.Wrap(err, "invalid result")
		}
		res.Outcome.HasObjective = true
		res.Outcome.Objective = obj
	}
	secs, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return res, errors.Wrap(err, "invalid time")
	}
	res.Elapsed = time.Duration(secs * float64(time.Second))
	if res.Outcome.NumVars, err = strconv.Atoi(row[4]); err != nil {
		return res, errors.Wrap(err, "invalid variable count")
	}
	if res.Outcome.NumConstrs, err = strconv.Atoi(row[5]); err != nil {
		return res, errors.Wrap(err, "invalid constraint count")
	}
	res.Outcome.Status = ParseSolveStatus(row[6])
	res.Outcome.Reason = row[7]
	return res, nil
}

func ParseSolveStatus(s string) SolveStatus {
	for st := StatusOptimal; st <= StatusError; st++ {
		if st.String() == s {
			return st
		}
	}
	return StatusUnknown
}
