package mdvrp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BatchSuite struct {
	suite.Suite
	dir     string
	good    *fakeBackend
	failing *fakeBackend
}

func (s *BatchSuite) SetupTest() {
	s.dir = s.T().TempDir()
	writeFile(s.T(), s.dir, "a.dat", e2eInstance)
	writeFile(s.T(), s.dir, "b.dat", "2\n1\n0 0\n1 1 1\n")
	writeFile(s.T(), s.dir, "c.dat", twoDepotInstance)
	s.good = &fakeBackend{name: "good", status: StatusOptimal, obj: 3414}
	s.failing = &fakeBackend{name: "failing", optErr: errors.New("license expired")}
}

func (s *BatchSuite) batch(workers int) *Batch {
	return &Batch{
		Dirs:         []string{s.dir},
		Formulations: []Formulation{SCF{}, DLMTZ{}},
		Backends:     []Backend{s.good, s.failing},
		Workers:      workers,
	}
}

func key(res Result) string {
	return fmt.Sprintf("%s/%s/%s", res.File, res.Formulation, res.Backend)
}

func (s *BatchSuite) TestSequential() {
	report := NewReport(0, SysInfo{})
	skipped, err := s.batch(1).Run(context.Background(), report)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, skipped, "b.dat can't be parsed")

	var keys []string
	for _, res := range report.Results() {
		keys = append(keys, key(res))
		switch {
		case res.File == "b.dat":
			require.False(s.T(), res.Outcome.HasObjective)
			require.Equal(s.T(), StatusError, res.Outcome.Status)
			require.Equal(s.T(), NO_SOLUTION, res.Outcome.ObjectiveString())
			require.True(s.T(), strings.HasPrefix(res.Outcome.Reason, "FormatError: "), res.Outcome.Reason)
			var fe *FormatError
			require.True(s.T(), errors.As(res.Outcome.Err, &fe))
		case res.Backend == "good":
			require.True(s.T(), res.Outcome.HasObjective)
			require.Equal(s.T(), 3414.0, res.Outcome.Objective)
		default:
			require.False(s.T(), res.Outcome.HasObjective)
			require.Equal(s.T(), StatusError, res.Outcome.Status)
			require.Contains(s.T(), res.Outcome.Reason, "license expired")
		}
	}
	require.Equal(s.T(), []string{
		"a.dat/SCF/good", "a.dat/SCF/failing", "a.dat/DL/good", "a.dat/DL/failing",
		"b.dat/SCF/good", "b.dat/SCF/failing", "b.dat/DL/good", "b.dat/DL/failing",
		"c.dat/SCF/good", "c.dat/SCF/failing", "c.dat/DL/good", "c.dat/DL/failing",
	}, keys)
	require.Equal(s.T(), int32(4), s.good.solved)
	require.Equal(s.T(), int32(4), s.good.freed)
}

func (s *BatchSuite) TestParallel() {
	seqReport := NewReport(0, SysInfo{})
	_, err := s.batch(1).Run(context.Background(), seqReport)
	require.NoError(s.T(), err)

	report := NewReport(0, SysInfo{})
	skipped, err := s.batch(3).Run(context.Background(), report)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, skipped)

	var want, got []string
	for _, res := range seqReport.Results() {
		want = append(want, key(res))
	}
	for _, res := range report.Results() {
		got = append(got, key(res))
	}
	require.ElementsMatch(s.T(), want, got)
}

func (s *BatchSuite) TestCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := NewReport(0, SysInfo{})
	_, err := s.batch(1).Run(ctx, report)
	require.ErrorIs(s.T(), err, context.Canceled)
	require.Empty(s.T(), report.Results())
	require.Equal(s.T(), []string{"good", "failing"}, report.Backends())
}

func (s *BatchSuite) TestMissingDirectory() {
	b := s.batch(1)
	b.Dirs = append(b.Dirs, filepath.Join(s.dir, "nope"))
	_, err := b.Run(context.Background(), NewReport(0, SysInfo{}))
	require.Equal(s.T(), "IOError", ErrorKind(err))
}

func TestBatchSuite(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}
