package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/internal/archive"
	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/optimize"
)

var testProject = filepath.Join("..", "testdata", "project.yaml")

func TestFleetFromFlags_OnlyChangedFlagsOverrideTheProject(t *testing.T) {
	// GIVEN the project fleet and a command line setting only the tug count
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addFleetFlags(fs)
	require.NoError(t, fs.Parse([]string{"--tugs=3"}))
	base := sim.Fleet{Tugs: 1, SmallTransport: 2, SmallStorage: 3}

	// WHEN the fleet is resolved
	f, err := fleetFromFlags(fs, base)

	// THEN only tugs change
	require.NoError(t, err)
	assert.Equal(t, sim.Fleet{Tugs: 3, SmallTransport: 2, SmallStorage: 3}, f)
}

func TestFleetFromFlags_RejectsNegativeCounts(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addFleetFlags(fs)
	require.NoError(t, fs.Parse([]string{"--small-storage=-1"}))

	_, err := fleetFromFlags(fs, sim.Fleet{})

	assert.Error(t, err)
}

func TestLoadBounds(t *testing.T) {
	b, err := loadBounds("")
	require.NoError(t, err)
	assert.Equal(t, optimize.DefaultBounds(), b)

	path := filepath.Join(t.TempDir(), "bounds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tugs: {min: 2, max: 3}\nlarge_storage: {min: 0, max: 0}\n"), 0o644))
	b, err = loadBounds(path)
	require.NoError(t, err)
	assert.Equal(t, optimize.Range{Min: 2, Max: 3}, b.Tugs)
	assert.Equal(t, optimize.Range{}, b.LargeStorage)
	assert.Equal(t, optimize.DefaultBounds().SmallStorage, b.SmallStorage)

	require.NoError(t, os.WriteFile(path, []byte("tugs: {min: 4, max: 1}\n"), 0o644))
	_, err = loadBounds(path)
	assert.Error(t, err)
}

func TestLoadSettings_FlagBeatsEnvironmentBeatsDefault(t *testing.T) {
	// GIVEN an archive path and worker count in the environment
	t.Setenv("BARGESIM_ARCHIVE", "env.db")
	t.Setenv("BARGESIM_WORKERS", "3")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSettingsFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers=5"}))

	// WHEN the settings are resolved
	s, err := loadSettings(fs)
	require.NoError(t, err)

	// THEN the explicit flag wins, the environment fills the rest
	assert.Equal(t, 5, s.Workers)
	assert.Equal(t, "env.db", s.Archive)
	assert.Equal(t, "project.yaml", s.Project)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoadSettings_RequiresAProject(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSettingsFlags(fs)
	require.NoError(t, fs.Parse([]string{"--project="}))

	_, err := loadSettings(fs)

	assert.ErrorContains(t, err, "BARGESIM_PROJECT")
}

func TestSettings_LoadResolvesTheProjectRouteTable(t *testing.T) {
	p, routes, err := Settings{Project: testProject}.load()
	require.NoError(t, err)

	assert.Equal(t, sim.Fleet{Tugs: 1, SmallTransport: 2, SmallStorage: 3}, p.Fleet)
	d, ok := routes.Distance("S2", "H2")
	assert.True(t, ok)
	assert.Equal(t, 8.0, d)
}

func TestRunThenRuns_ArchivesTheReport(t *testing.T) {
	// GIVEN the test project and a fresh archive
	db := filepath.Join(t.TempDir(), "runs.db")

	// WHEN the campaign is run with JSON output and archiving
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--project", testProject, "--archive", db, "--json", "--log", "error"})
	require.NoError(t, rootCmd.Execute())

	// THEN the printed report is for the project fleet
	var r sim.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, sim.Fleet{Tugs: 1, SmallTransport: 2, SmallStorage: 3}, r.Fleet)
	assert.Positive(t, r.TotalDemand)

	// AND the runs command lists exactly that run
	out.Reset()
	rootCmd.SetArgs([]string{"runs", "--project", testProject, "--archive", db, "--json"})
	require.NoError(t, rootCmd.Execute())
	var entries []archive.Entry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, archive.KindRun, entries[0].Kind)
	assert.Equal(t, r.Score, entries[0].Score)
	assert.Equal(t, testProject, entries[0].Project)
}

func TestWriteReportFile(t *testing.T) {
	// GIVEN a report and a writable path
	path := filepath.Join(t.TempDir(), "report.json")
	r := &sim.Report{StartDate: "2026-03-02", Fleet: sim.Fleet{Tugs: 2}, RanDryCount: 1}

	// WHEN it is written
	require.NoError(t, writeReportFile(path, r))

	// THEN the file holds the whole report
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got sim.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.Fleet, got.Fleet)
	assert.Equal(t, 1, got.RanDryCount)

	// AND an unwritable path is reported instead of dropped
	assert.Error(t, writeReportFile(filepath.Join(t.TempDir(), "missing", "report.json"), r))
}

func TestRenderReport_ShowsCostsAndOutcome(t *testing.T) {
	r := &sim.Report{
		StartDate:   "2026-03-02",
		Fleet:       sim.Fleet{Tugs: 2},
		RanDryCount: 1,
		RanDryEvents: []sim.RanDryEvent{
			{Rig: "R1", HDD: "H1", Phase: sim.PhasePilot, Date: "2026-03-05", Duration: 2.5},
		},
		Costs: sim.CostBreakdown{Rental: 12500, GrandTotal: 1234567},
	}
	var buf bytes.Buffer

	renderReport(&buf, r)

	out := buf.String()
	assert.Contains(t, out, "2T 0ST 0SS 0LT 0LS")
	assert.Contains(t, out, "$12,500")
	assert.Contains(t, out, "$1,234,567")
	assert.Contains(t, out, "1 ran-dry event(s)")
	assert.Contains(t, out, "R1 at H1 ran dry in pilot on 2026-03-05")
}

func TestDollarsAndGallons(t *testing.T) {
	assert.Equal(t, "$1,000,000", dollars(999999.6))
	assert.Equal(t, "80,000 gal", gallons(80000))
}
