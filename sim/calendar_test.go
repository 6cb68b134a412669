package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalendar_ResolvesDatesFromEarliestStart(t *testing.T) {
	// GIVEN two crossings where the second starts first
	cfg := sameRigConfig(10)
	cfg.Schedule[1].Start = "2026-03-01"
	cfg.Schedule[1].RigUp = "2026-03-01"

	// WHEN the schedule is resolved
	cal, hdds, err := NewCalendar(cfg.Schedule, cfg)

	// THEN hour 0 is midnight of the earliest start
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", cal.Date(0))
	require.Len(t, hdds, 2)
	assert.Equal(t, 24.0, hdds[0].Start)
	assert.Equal(t, 96.0, hdds[0].Pilot)
	assert.Equal(t, hdds[0].RigDown+float64(cfg.Planning.RigDownBufferDays)*24, hdds[0].Complete)
}

func TestNewCalendar_RejectsBadSchedules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty", func(c *Config) { c.Schedule = nil }, ErrEmptySchedule},
		{"malformed date", func(c *Config) { c.Schedule[0].Pilot = "March 5" }, ErrBadSchedule},
		{"out of order", func(c *Config) { c.Schedule[0].Ream = "2026-03-04" }, ErrBadSchedule},
		{"duplicate crossing", func(c *Config) { c.Schedule = append(c.Schedule, c.Schedule[0]) }, ErrBadSchedule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := singleRigConfig()
			tt.mutate(&cfg)
			_, _, err := NewCalendar(cfg.Schedule, cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPhaseForDate_WalksThePhaseSequence(t *testing.T) {
	cfg := singleRigConfig()
	_, hdds, err := NewCalendar(cfg.Schedule, cfg)
	require.NoError(t, err)
	h := hdds[0]

	cases := map[float64]Phase{
		-1:               PhasePending,
		0:                PhaseMobilization,
		h.RigUp:          PhaseRigUp,
		h.Pilot:          PhasePilot,
		h.Ream + 1:       PhaseReam,
		h.Swab:           PhaseSwab,
		h.Pull:           PhasePull,
		h.RigDown:        PhaseRigDown,
		h.Complete:       PhaseComplete,
		h.Complete + 100: PhaseComplete,
	}
	for at, want := range cases {
		assert.Equal(t, want, PhaseForDate(h, at), "hour %.0f", at)
	}
	assert.True(t, PhasePull.Consumes())
	assert.False(t, PhaseRigDown.Consumes())
}

func TestCalendar_RateAtHonoursDrillingWindowAndSundays(t *testing.T) {
	// GIVEN a rig that rests on Sundays
	cfg := singleRigConfig()
	cfg.Schedule[0].WorksSundays = false
	cal, hdds, err := NewCalendar(cfg.Schedule, cfg)
	require.NoError(t, err)
	h := hdds[0]
	pilotDay := h.Pilot // Thursday 2026-03-05

	// THEN draw happens only between 07:00 and 17:00
	assert.Equal(t, 0.0, cal.RateAt(cfg.Rigs, h, pilotDay+6.9))
	assert.Equal(t, 7500.0, cal.RateAt(cfg.Rigs, h, pilotDay+7))
	assert.Equal(t, 7500.0, cal.RateAt(cfg.Rigs, h, pilotDay+16.9))
	assert.Equal(t, 0.0, cal.RateAt(cfg.Rigs, h, pilotDay+17))

	// AND not at all on Sunday 2026-03-08
	sunday, err := cal.HoursAt("2026-03-08")
	require.NoError(t, err)
	assert.True(t, cal.IsSunday(sunday+10))
	assert.Equal(t, 0.0, cal.RateAt(cfg.Rigs, h, sunday+10))

	assert.Equal(t, 75000.0, cal.DailyDemand(cfg.Rigs, "R1", PhasePilot))
	assert.Equal(t, 0.0, cal.DailyDemand(cfg.Rigs, "R1", PhaseRigUp))
}

func TestCalendar_ContinuousOpsDrawsAroundTheClock(t *testing.T) {
	cfg := singleRigConfig()
	cfg.ContinuousOps = true
	cal, hdds, err := NewCalendar(cfg.Schedule, cfg)
	require.NoError(t, err)

	assert.Equal(t, 7500.0, cal.RateAt(cfg.Rigs, hdds[0], hdds[0].Pilot+2))
	assert.Equal(t, 24.0, cal.DrillingHoursPerDay())
	assert.Equal(t, 180000.0, cal.DailyDemand(cfg.Rigs, "R1", PhasePilot))
}

func TestCalendar_NextDrillingStart(t *testing.T) {
	cal := &Calendar{DrillStart: 7, DrillEnd: 17}

	assert.Equal(t, 7.0, cal.NextDrillingStart(0))
	assert.Equal(t, 7.0, cal.NextDrillingStart(7))
	assert.Equal(t, 31.0, cal.NextDrillingStart(7.5))
	assert.Equal(t, 31.0, cal.NextDrillingStart(20))
}
