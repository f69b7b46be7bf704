package mdvrp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIndexHelpers(t *testing.T) {
	assert.Equal(t, 0, GetArcIndex(0, 0, 3, 0))
	assert.Equal(t, 5, GetArcIndex(1, 2, 3, 0))
	assert.Equal(t, 17, GetArcIndex(2, 2, 3, 9))
	assert.Equal(t, 11, GetNodeIndex(2, 9))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "3414", formatNumber(3414))
	assert.Equal(t, "-2", formatNumber(-2))
	assert.Equal(t, "0.125", formatNumber(0.125))
	assert.Equal(t, "0,1,\n1,0,\n", Print2DArray([][]float64{{0, 1}, {1, 0}}))
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "Error", ErrorKind(errors.New("plain")))
	assert.Equal(t, "IOError", ErrorKind(errors.Wrap(&IOError{Path: "x"}, "wrapped")))
	assert.Equal(t, "FormatError", ErrorKind(&FormatError{File: "f.dat", Line: 3, Tokens: 1}))
	assert.Equal(t, "ParseError", ErrorKind(&ParseError{File: "f.dat", Err: errors.New("eof")}))

	se := &SolveError{Instance: "p01.dat", Formulation: "SCF", Backend: "cplex", Err: &ParseError{File: "f.dat", Line: 2, Err: errors.New("bad")}}
	assert.Equal(t, "SolveError", ErrorKind(se))
	assert.Equal(t, "solve error for p01.dat (SCF) on cplex: parse error in f.dat line 2: bad", se.Error())
	assert.Equal(t, "format error in f.dat line 3: expected 2 values for coordinates, got 1", (&FormatError{File: "f.dat", Line: 3, Tokens: 1}).Error())
	assert.Equal(t, "parse error in f.dat: eof", (&ParseError{File: "f.dat", Err: errors.New("eof")}).Error())
}
