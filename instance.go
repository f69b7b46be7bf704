package mdvrp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type dataLine struct {
	no   int
	text string
}

// instanceReader hands out the non-blank lines of an instance file in order.
type instanceReader struct {
	file  string
	lines []dataLine
	pos   int
}

func (r *instanceReader) next(what string) (dataLine, error) {
	if r.pos >= len(r.lines) {
		return dataLine{}, &ParseError{File: r.file, Err: errors.Errorf("unexpected end of file, missing %s", what)}
	}
	l := r.lines[r.pos]
	r.pos++
	return l, nil
}

func (r *instanceReader) nextInt(what string) (int, error) {
	l, err := r.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(l.text)
	if err != nil {
		return 0, &ParseError{File: r.file, Line: l.no, Err: errors.Wrapf(err, "invalid %s", what)}
	}
	return v, nil
}

// capacity bounds a declared count by the lines left, so a bogus count in the
// header runs into the end of the file instead of sizing an allocation.
func (r *instanceReader) capacity(count int) int {
	if left := len(r.lines) - r.pos; count > left {
		return left
	}
	return count
}

func (r *instanceReader) coordinates(count int, what string) ([][2]float64, error) {
	res := make([][2]float64, 0, r.capacity(count))
	for i := 0; i < count; i++ {
		l, err := r.next(fmt.Sprintf("%s coordinates %d", what, i))
		if err != nil {
			return nil, err
		}
		parts := strings.Fields(l.text)
		if len(parts) == 1 {
			// a lone scalar means the section ran into the capacity block
			return nil, &ParseError{File: r.file, Line: l.no, Err: errors.Errorf("insufficient %s coordinate lines, expected %d, got %d", what, count, i)}
		}
		if len(parts) != 2 {
			return nil, &FormatError{File: r.file, Line: l.no, Tokens: len(parts)}
		}
		var c [2]float64
		for k := 0; k < 2; k++ {
			v, err := strconv.ParseFloat(parts[k], 64)
			if err != nil {
				return nil, &ParseError{File: r.file, Line: l.no, Err: errors.Wrapf(err, "invalid %s coordinate", what)}
			}
			c[k] = v
		}
		res = append(res, c)
	}
	return res, nil
}

func (r *instanceReader) ints(count int, what string) ([]int, error) {
	res := make([]int, 0, r.capacity(count))
	for i := 0; i < count; i++ {
		v, err := r.nextInt(fmt.Sprintf("%s %d", what, i))
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

// LoadInstance reads and parses the instance file at path.
func LoadInstance(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	return ParseInstance(filepath.Base(path), f)
}

// ParseInstance parses an instance in the positional .dat layout. Blank lines
// are ignored anywhere in the input.
func ParseInstance(name string, rd io.Reader) (*Instance, error) {
	r := &instanceReader{file: name}
	sc := bufio.NewScanner(rd)
	no := 0
	for sc.Scan() {
		no++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		r.lines = append(r.lines, dataLine{no: no, text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, &IOError{Path: name, Err: err}
	}

	numCustomers, err := r.nextInt("number of customers")
	if err != nil {
		return nil, err
	}
	numDepots, err := r.nextInt("number of depots")
	if err != nil {
		return nil, err
	}
	if numCustomers < 0 {
		return nil, &ParseError{File: name, Line: r.lines[0].no, Err: errors.Errorf("negative number of customers %d", numCustomers)}
	}
	if numDepots <= 0 {
		return nil, &ParseError{File: name, Line: r.lines[1].no, Err: errors.Errorf("at least one depot is required, got %d", numDepots)}
	}

	inst := &Instance{Name: name}
	if inst.DepotCoordinates, err = r.coordinates(numDepots, "depot"); err != nil {
		return nil, err
	}
	// A customer line with a single token is the vehicle capacity, meaning
	// the file lists fewer customers than it declares. That is a ParseError;
	// only lines with three or more tokens are a FormatError.
	if inst.CustomerCoordinates, err = r.coordinates(numCustomers, "customer"); err != nil {
		return nil, err
	}
	if inst.VehicleCapacity, err = r.nextInt("vehicle capacity"); err != nil {
		return nil, err
	}
	if inst.VehicleCapacity <= 0 {
		return nil, &ParseError{File: name, Line: r.lines[r.pos-1].no, Err: errors.Errorf("vehicle capacity must be positive, got %d", inst.VehicleCapacity)}
	}
	if inst.DepotCapacities, err = r.ints(numDepots, "depot capacity"); err != nil {
		return nil, err
	}
	if inst.CustomerDemands, err = r.ints(numCustomers, "customer demand"); err != nil {
		return nil, err
	}
	mode, err := r.nextInt("cost type")
	if err != nil {
		return nil, err
	}
	if mode != int(CostIntegerScaled) && mode != int(CostRawFloat) {
		return nil, &ParseError{File: name, Line: r.lines[r.pos-1].no, Err: errors.Errorf("cost type must be 0 or 1, got %d", mode)}
	}
	inst.CostMode = CostMode(mode)
	if r.pos < len(r.lines) {
		Log(LogDebug, "%s: ignoring %d trailing lines", name, len(r.lines)-r.pos)
	}

	points := make([][2]float64, 0, inst.N())
	points = append(points, inst.DepotCoordinates...)
	points = append(points, inst.CustomerCoordinates...)
	inst.Costs = CalcCostMatrix(points, inst.CostMode)
	return inst, nil
}

// WriteInstance writes inst in the layout ParseInstance reads.
func WriteInstance(w io.Writer, inst *Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", inst.NumCustomers(), inst.NumDepots())
	for _, c := range inst.DepotCoordinates {
		fmt.Fprintf(bw, "%s %s\n", formatNumber(c[0]), formatNumber(c[1]))
	}
	for _, c := range inst.CustomerCoordinates {
		fmt.Fprintf(bw, "%s %s\n", formatNumber(c[0]), formatNumber(c[1]))
	}
	fmt.Fprintf(bw, "%d\n", inst.VehicleCapacity)
	for _, c := range inst.DepotCapacities {
		fmt.Fprintf(bw, "%d\n", c)
	}
	for _, d := range inst.CustomerDemands {
		fmt.Fprintf(bw, "%d\n", d)
	}
	fmt.Fprintf(bw, "%d\n", int(inst.CostMode))
	return errors.Wrap(bw.Flush(), "couldn't write instance")
}

// DiscoverInstances lists the instance files of every directory, sorted by
// name within a directory and in the order the directories were given.
func DiscoverInstances(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &IOError{Path: dir, Err: err}
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), INSTANCE_EXT) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, n := range names {
			files = append(files, filepath.Join(dir, n))
		}
	}
	return files, nil
}
