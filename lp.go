package mdvrp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

const lpTermsPerLine = 8

// WriteLP writes m in CPLEX LP format.
func (m *LinearModel) WriteLP(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\\ Problem: %s\n", m.Name)
	fmt.Fprintln(bw, "Minimize")
	fmt.Fprint(bw, " obj:")
	m.writeExpr(bw, m.Objective)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Subject To")
	for _, c := range m.Constrs {
		fmt.Fprintf(bw, " %s:", c.Name)
		m.writeExpr(bw, c.Expr)
		fmt.Fprintf(bw, " %s %s\n", c.Sense, formatNumber(c.RHS))
	}

	fmt.Fprintln(bw, "Bounds")
	for _, v := range m.Vars {
		if v.Type == Binary && v.LB == 0 && v.UB == 1 {
			continue
		}
		switch {
		case v.LB == v.UB:
			fmt.Fprintf(bw, " %s = %s\n", v.Name, formatNumber(v.LB))
		case math.IsInf(v.UB, 1):
			if v.LB != 0 {
				fmt.Fprintf(bw, " %s >= %s\n", v.Name, lpBound(v.LB))
			}
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", lpBound(v.LB), v.Name, lpBound(v.UB))
		}
	}

	var bins, ints []string
	for _, v := range m.Vars {
		switch v.Type {
		case Binary:
			bins = append(bins, v.Name)
		case Integer:
			ints = append(ints, v.Name)
		}
	}
	writeNameSection(bw, "Binaries", bins)
	writeNameSection(bw, "Generals", ints)
	fmt.Fprintln(bw, "End")
	return errors.Wrap(bw.Flush(), "couldn't write lp model")
}

// WriteLPFile writes m to path in CPLEX LP format.
func (m *LinearModel) WriteLPFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	if err := m.WriteLP(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "couldn't close %s", path)
}

func (m *LinearModel) writeExpr(bw *bufio.Writer, e Expr) {
	if len(e.Ind) == 0 {
		fmt.Fprint(bw, " 0")
		return
	}
	for k, ind := range e.Ind {
		if k > 0 && k%lpTermsPerLine == 0 {
			fmt.Fprint(bw, "\n  ")
		}
		val := e.Val[k]
		sign := "+"
		if val < 0 {
			sign = "-"
			val = -val
		}
		if k == 0 && sign == "+" {
			sign = ""
		} else {
			sign = " " + sign
		}
		if val == 1 {
			fmt.Fprintf(bw, "%s %s", sign, m.Vars[ind].Name)
		} else {
			fmt.Fprintf(bw, "%s %s %s", sign, formatNumber(val), m.Vars[ind].Name)
		}
	}
}

func writeNameSection(bw *bufio.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(bw, title)
	for k, n := range names {
		if k%lpTermsPerLine == 0 {
			if k > 0 {
				fmt.Fprintln(bw)
			}
			fmt.Fprint(bw, " ")
		}
		fmt.Fprintf(bw, " %s", n)
	}
	fmt.Fprintln(bw)
}

func lpBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return formatNumber(v)
}
