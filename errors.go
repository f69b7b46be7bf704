package mdvrp

import (
	"fmt"

	"github.com/pkg/errors"
)

// IOError is returned when an instance file or directory cannot be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError marks a coordinate line that does not hold exactly two values.
type FormatError struct {
	File   string
	Line   int
	Tokens int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error in %s line %d: expected 2 values for coordinates, got %d", e.File, e.Line, e.Tokens)
}

// ParseError covers non-numeric or out-of-range values and files that end
// before the declared counts are satisfied. Line is 0 when the file ran out.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("parse error in %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("parse error in %s line %d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SolveError wraps anything that went wrong while building or optimizing a
// model on a backend.
type SolveError struct {
	Instance    string
	Formulation string
	Backend     string
	Err         error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("solve error for %s (%s) on %s: %v", e.Instance, e.Formulation, e.Backend, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

// ErrorKind names the class of err for diagnostics.
func ErrorKind(err error) string {
	var (
		ioErr    *IOError
		fmtErr   *FormatError
		parseErr *ParseError
		solveErr *SolveError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ioErr):
		return "IOError"
	case errors.As(err, &fmtErr):
		return "FormatError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.As(err, &solveErr):
		return "SolveError"
	}
	return "Error"
}
