package sim

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// ErrEmptySchedule is returned when a configuration has no HDD schedule entries.
var ErrEmptySchedule = errors.New("empty HDD schedule")

// ErrBadSchedule wraps malformed or out-of-order schedule dates.
var ErrBadSchedule = errors.New("bad HDD schedule")

// Phase is the drilling phase of one HDD crossing at a point in time.
type Phase string

const (
	PhasePending      Phase = "pending"
	PhaseMobilization Phase = "mobilization"
	PhaseRigUp        Phase = "rigUp"
	PhasePilot        Phase = "pilot"
	PhaseReam         Phase = "ream"
	PhaseSwab         Phase = "swab"
	PhasePull         Phase = "pull"
	PhaseRigDown      Phase = "rigDown"
	PhaseComplete     Phase = "complete"
)

// Consumes reports whether the phase draws water (pilot, ream, swab, pull).
func (p Phase) Consumes() bool {
	switch p {
	case PhasePilot, PhaseReam, PhaseSwab, PhasePull:
		return true
	}
	return false
}

// HDD is a schedule entry resolved to simulation hours, where hour 0 is
// midnight of the earliest start date.
type HDD struct {
	Index        int
	Rig          string
	Crossing     string
	WorksSundays bool

	Start    float64
	RigUp    float64
	Pilot    float64
	Ream     float64
	Swab     float64
	Pull     float64
	RigDown  float64
	Complete float64 // end of the rig-down buffer
}

// Calendar converts simulation hours to wall-clock dates and drilling windows.
type Calendar struct {
	Origin     time.Time
	DrillStart float64
	DrillEnd   float64
	Continuous bool
}

// NewCalendar resolves the schedule against its earliest start date. Every
// entry must carry seven ordered dates and a unique crossing name.
func NewCalendar(schedule []ScheduleEntry, cfg Config) (*Calendar, []*HDD, error) {
	if len(schedule) == 0 {
		return nil, nil, ErrEmptySchedule
	}
	type parsed struct {
		entry ScheduleEntry
		dates [7]time.Time
	}
	all := make([]parsed, 0, len(schedule))
	var origin time.Time
	seen := make(map[string]bool, len(schedule))
	for i, e := range schedule {
		if seen[e.Crossing] {
			return nil, nil, fmt.Errorf("%w: crossing %q listed twice", ErrBadSchedule, e.Crossing)
		}
		seen[e.Crossing] = true
		raw := [7]string{e.Start, e.RigUp, e.Pilot, e.Ream, e.Swab, e.Pull, e.RigDown}
		var p parsed
		p.entry = e
		for j, s := range raw {
			d, err := time.Parse(dateLayout, s)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: entry %d (%s): %v", ErrBadSchedule, i, e.Crossing, err)
			}
			if j > 0 && d.Before(p.dates[j-1]) {
				return nil, nil, fmt.Errorf("%w: entry %d (%s): dates out of order at %s", ErrBadSchedule, i, e.Crossing, s)
			}
			p.dates[j] = d
		}
		if origin.IsZero() || p.dates[0].Before(origin) {
			origin = p.dates[0]
		}
		all = append(all, p)
	}

	cal := &Calendar{
		Origin:     origin,
		DrillStart: cfg.DrillingStartHour,
		DrillEnd:   cfg.DrillingEndHour,
		Continuous: cfg.ContinuousOps,
	}
	hdds := make([]*HDD, 0, len(all))
	for i, p := range all {
		h := func(j int) float64 { return p.dates[j].Sub(origin).Hours() }
		hdds = append(hdds, &HDD{
			Index:        i,
			Rig:          p.entry.Rig,
			Crossing:     p.entry.Crossing,
			WorksSundays: p.entry.WorksSundays,
			Start:        h(0),
			RigUp:        h(1),
			Pilot:        h(2),
			Ream:         h(3),
			Swab:         h(4),
			Pull:         h(5),
			RigDown:      h(6),
			Complete:     h(6) + float64(cfg.Planning.RigDownBufferDays)*24,
		})
	}
	return cal, hdds, nil
}

// PhaseForDate returns the phase of h at simulation hour t.
func PhaseForDate(h *HDD, t float64) Phase {
	switch {
	case t < h.Start:
		return PhasePending
	case t < h.RigUp:
		return PhaseMobilization
	case t < h.Pilot:
		return PhaseRigUp
	case t < h.Ream:
		return PhasePilot
	case t < h.Swab:
		return PhaseReam
	case t < h.Pull:
		return PhaseSwab
	case t < h.RigDown:
		return PhasePull
	case t < h.Complete:
		return PhaseRigDown
	default:
		return PhaseComplete
	}
}

// PhaseRate is the hourly rate configured for a rig in a phase. Non-consuming
// phases and unknown rigs return zero.
func PhaseRate(rigs map[string]RigRates, rig string, phase Phase) float64 {
	r, ok := rigs[rig]
	if !ok {
		return 0
	}
	switch phase {
	case PhasePilot:
		return r.Pilot
	case PhaseReam:
		return r.Ream
	case PhaseSwab:
		return r.Swab
	case PhasePull:
		return r.Pull
	}
	return 0
}

// ConsumptionRate is the rig's hourly draw for a phase on a given day: the
// phase rate, or zero on a Sunday for rigs that do not work Sundays.
func ConsumptionRate(rigs map[string]RigRates, rig string, phase Phase, sunday, worksSundays bool) float64 {
	if sunday && !worksSundays {
		return 0
	}
	return PhaseRate(rigs, rig, phase)
}

// Time converts simulation hours to wall-clock time.
func (c *Calendar) Time(hours float64) time.Time {
	return c.Origin.Add(time.Duration(math.Round(hours*60)) * time.Minute)
}

// Date is the YYYY-MM-DD date containing the given hour.
func (c *Calendar) Date(hours float64) string {
	return c.Time(hours).Format(dateLayout)
}

// HoursAt converts a YYYY-MM-DD date to simulation hours at midnight.
func (c *Calendar) HoursAt(date string) (float64, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0, err
	}
	return d.Sub(c.Origin).Hours(), nil
}

// HourOfDay is the wall-clock hour in [0, 24).
func (c *Calendar) HourOfDay(hours float64) float64 {
	return math.Mod(hours, 24)
}

// IsSunday reports whether the hour falls on a Sunday.
func (c *Calendar) IsSunday(hours float64) bool {
	return c.Time(hours).Weekday() == time.Sunday
}

// DrillingHour reports whether rigs draw water at this hour of the day.
func (c *Calendar) DrillingHour(hours float64) bool {
	if c.Continuous {
		return true
	}
	hod := c.HourOfDay(hours)
	return hod >= c.DrillStart && hod < c.DrillEnd
}

// DrillingHoursPerDay is the length of the daily drilling window.
func (c *Calendar) DrillingHoursPerDay() float64 {
	if c.Continuous {
		return 24
	}
	return c.DrillEnd - c.DrillStart
}

// NextDrillingStart is the first hour >= t at which the drilling window opens.
func (c *Calendar) NextDrillingStart(t float64) float64 {
	if c.Continuous {
		return t
	}
	day := math.Floor(t/24) * 24
	start := day + c.DrillStart
	if t <= start {
		return start
	}
	return start + 24
}

// RateAt is the instantaneous draw of h at hour t, honouring the drilling
// window and Sunday rule.
func (c *Calendar) RateAt(rigs map[string]RigRates, h *HDD, t float64) float64 {
	if !c.DrillingHour(t) {
		return 0
	}
	return ConsumptionRate(rigs, h.Rig, PhaseForDate(h, t), c.IsSunday(t), h.WorksSundays)
}

// DailyDemand is the water a rig needs for one full drilling day in a phase.
func (c *Calendar) DailyDemand(rigs map[string]RigRates, rig string, phase Phase) float64 {
	return PhaseRate(rigs, rig, phase) * c.DrillingHoursPerDay()
}
