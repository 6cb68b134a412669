// Package testutil provides shared test infrastructure for the barge
// simulator: the two-rig test campaign under testdata/ and float assertion
// helpers used by the sim/ sub-package tests.
package testutil

import (
	"math"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/route"
)

// TestdataDir is the repository testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// LoadProject loads testdata/project.yaml and its route table.
func LoadProject(t *testing.T) (sim.Project, *route.Table) {
	t.Helper()
	p, err := sim.LoadProject(filepath.Join(TestdataDir(t), "project.yaml"))
	if err != nil {
		t.Fatalf("Failed to load test project: %v", err)
	}
	routes, err := route.Load(p.Routes)
	if err != nil {
		t.Fatalf("Failed to load test routes: %v", err)
	}
	return p, routes
}

// Run simulates the test project with fleet and fails the test on a
// construction error.
func Run(t *testing.T, fleet sim.Fleet, opts sim.Options) *sim.Report {
	t.Helper()
	p, routes := LoadProject(t)
	s, err := sim.NewSimulator(p.Config, fleet, routes, opts)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s.Run()
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
