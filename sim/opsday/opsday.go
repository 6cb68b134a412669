// Package opsday turns a finished simulation report into the operations brief
// for one calendar day: which crossings are active and how much water they
// hold, what every tug was last doing, the deliveries pumped that day, and
// the alerts and recommendations that follow from storage levels.
package opsday

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/trace"
)

// ErrNoTimeline is returned for reports produced in optimization mode.
var ErrNoTimeline = errors.New("report has no storage timeline")

// Status grades the water position of an active crossing.
type Status string

const (
	StatusCritical Status = "critical"
	StatusWarning  Status = "warning"
	StatusHealthy  Status = "healthy"
	StatusStandby  Status = "standby" // active but not drilling
)

// noDrawSupplyHours stands in for supply hours when the phase draws nothing.
const noDrawSupplyHours = 999

// ActiveHDD is one crossing between mobilization and the end of rig-down.
type ActiveHDD struct {
	Crossing        string    `json:"crossing"`
	Rig             string    `json:"rig"`
	Phase           sim.Phase `json:"phase"`
	PhaseDay        int       `json:"phaseDay"`
	PhaseTotalDays  int       `json:"phaseTotalDays"`
	ConsumptionRate float64   `json:"consumptionRate"` // gal per drilling hour
	StorageLevel    float64   `json:"storageLevel"`
	StorageCapacity float64   `json:"storageCapacity"`
	StoragePercent  float64   `json:"storagePercent"`
	SupplyHours     float64   `json:"supplyHours"`
	Status          Status    `json:"status"`
}

// TugStatus is a tug's last logged state on the day.
type TugStatus struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Detail     string  `json:"statusDetail"`
	Location   string  `json:"location"`
	Cargo      string  `json:"cargo"`
	CargoLevel float64 `json:"cargoLevel"`
}

// Delivery is one completed pump-off.
type Delivery struct {
	Hour        float64 `json:"hour"`
	Time        string  `json:"time"`
	Tug         string  `json:"tug"`
	Destination string  `json:"destination"`
	Volume      float64 `json:"volume"`
}

// Note is an alert or a recommendation.
type Note struct {
	Type   string `json:"type"` // critical, warning, info
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Summary totals the day.
type Summary struct {
	TotalDeliveries   int     `json:"totalDeliveries"`
	TotalVolume       float64 `json:"totalVolume"`
	AvgStoragePercent float64 `json:"avgStorageLevel"`
}

// Brief is the operations brief of one date.
type Brief struct {
	Date            string      `json:"date"`
	DisplayDate     string      `json:"displayDate"`
	ProjectDay      int         `json:"projectDay"`
	ActiveHDDs      []ActiveHDD `json:"activeHDDs"`
	Tugs            []TugStatus `json:"tugs"`
	Deliveries      []Delivery  `json:"deliveries"`
	Alerts          []Note      `json:"alerts"`
	Recommendations []Note      `json:"recommendations"`
	Summary         Summary     `json:"summary"`
}

// Extract builds the brief for date (YYYY-MM-DD) from a report and the
// configuration it was run with. Phases are read at noon.
func Extract(r *sim.Report, cfg sim.Config, date string) (*Brief, error) {
	if r.Timeline == nil {
		return nil, ErrNoTimeline
	}
	cfg, _ = cfg.Normalize()
	cal, hdds, err := sim.NewCalendar(cfg.Schedule, cfg)
	if err != nil {
		return nil, err
	}
	day, err := cal.HoursAt(date)
	if err != nil {
		return nil, fmt.Errorf("ops day: %w", err)
	}

	b := &Brief{
		Date:        date,
		DisplayDate: cal.Time(day).Format("Monday, January 2, 2006"),
		ProjectDay:  int(math.Floor(day/24)) + 1,
	}
	for _, h := range hdds {
		phase := sim.PhaseForDate(h, day+12)
		if phase == sim.PhasePending || phase == sim.PhaseComplete {
			continue
		}
		b.ActiveHDDs = append(b.ActiveHDDs, activeHDD(r, cfg, h, phase, date, day))
	}
	b.Tugs = tugStatuses(r.AssetLog, date)
	b.Deliveries = deliveries(r.AssetLog, date)

	b.Summary.TotalDeliveries = len(b.Deliveries)
	for _, d := range b.Deliveries {
		b.Summary.TotalVolume += d.Volume
	}
	if len(b.ActiveHDDs) > 0 {
		total := 0.0
		for _, a := range b.ActiveHDDs {
			total += a.StoragePercent
		}
		b.Summary.AvgStoragePercent = math.Round(total / float64(len(b.ActiveHDDs)))
	}

	b.Alerts = alerts(b.ActiveHDDs, hdds, day)
	b.Recommendations = recommendations(b.ActiveHDDs)
	return b, nil
}

func activeHDD(r *sim.Report, cfg sim.Config, h *sim.HDD, phase sim.Phase, date string, day float64) ActiveHDD {
	a := ActiveHDD{Crossing: h.Crossing, Rig: h.Rig, Phase: phase, PhaseDay: 1, PhaseTotalDays: 1}
	if start, end, ok := phaseBounds(h, phase); ok {
		a.PhaseDay = max(1, int(math.Floor((day-start)/24))+1)
		a.PhaseTotalDays = max(1, int(math.Ceil((end-start)/24)))
	}
	a.ConsumptionRate = sim.PhaseRate(cfg.Rigs, h.Rig, phase)
	if s, ok := sampleAt(r.Timeline[h.Crossing], date, 12); ok {
		a.StorageLevel = math.Round(s.Level)
		a.StorageCapacity = s.Capacity
	}
	fraction := 0.0
	if a.StorageCapacity > 0 {
		fraction = a.StorageLevel / a.StorageCapacity
	}
	a.StoragePercent = math.Round(fraction * 100)
	a.SupplyHours = noDrawSupplyHours
	if a.ConsumptionRate > 0 {
		a.SupplyHours = math.Round(a.StorageLevel / a.ConsumptionRate)
	}
	a.Status = grade(phase, fraction, a.SupplyHours)
	return a
}

// phaseBounds returns the start and end hours of the phases that have a
// day count.
func phaseBounds(h *sim.HDD, phase sim.Phase) (float64, float64, bool) {
	switch phase {
	case sim.PhaseRigUp:
		return h.RigUp, h.Pilot, true
	case sim.PhasePilot:
		return h.Pilot, h.Ream, true
	case sim.PhaseReam:
		return h.Ream, h.Swab, true
	case sim.PhaseSwab:
		return h.Swab, h.Pull, true
	case sim.PhasePull:
		return h.Pull, h.RigDown, true
	}
	return 0, 0, false
}

// sampleAt returns the timeline sample at hour of date, else the day's first.
func sampleAt(samples []sim.StorageSample, date string, hour int) (sim.StorageSample, bool) {
	var first *sim.StorageSample
	for i := range samples {
		s := &samples[i]
		if s.Date != date {
			continue
		}
		if s.Hour == hour {
			return *s, true
		}
		if first == nil {
			first = s
		}
	}
	if first == nil {
		return sim.StorageSample{}, false
	}
	return *first, true
}

func grade(phase sim.Phase, fraction, supplyHours float64) Status {
	switch {
	case !phase.Consumes():
		return StatusStandby
	case fraction < 0.2 || supplyHours < 8:
		return StatusCritical
	case fraction < 0.4 || supplyHours < 16:
		return StatusWarning
	}
	return StatusHealthy
}

var tugStatusNames = map[string]string{
	"en-route-loaded":     "en-route",
	"en-route-storage":    "en-route",
	"direct-hdd-delivery": "en-route",
	"en-route-empty":      "returning",
	"en-route-pickup":     "repositioning",
	"arrived-at-rig":      "waiting",
	"hookup":              "pumping",
	"pumping":             "pumping",
	"disconnect":          "pumping",
	"throttled-standby":   "on-site",
}

func displayStatus(status string) string {
	if s, ok := tugStatusNames[status]; ok {
		return s
	}
	return status
}

func tugName(id string) string {
	return "T" + strings.TrimPrefix(id, "tug")
}

// tugStatuses keeps the last entry of each tug logged on date, in tug order.
func tugStatuses(log []trace.AssetLogEntry, date string) []TugStatus {
	latest := make(map[string]trace.AssetLogEntry)
	var ids []string
	for _, e := range log {
		if e.Date != date || e.AssetType != trace.AssetTug {
			continue
		}
		prev, seen := latest[e.AssetID]
		if !seen {
			ids = append(ids, e.AssetID)
		}
		if !seen || e.Time >= prev.Time {
			latest[e.AssetID] = e
		}
	}
	sort.Strings(ids)
	out := make([]TugStatus, 0, len(ids))
	for _, id := range ids {
		e := latest[id]
		out = append(out, TugStatus{
			ID:         id,
			Name:       tugName(id),
			Status:     displayStatus(e.Status),
			Detail:     e.Detail,
			Location:   e.Location,
			Cargo:      e.Cargo,
			CargoLevel: e.CargoLevel,
		})
	}
	return out
}

func deliveries(log []trace.AssetLogEntry, date string) []Delivery {
	var out []Delivery
	for _, e := range log {
		if e.Date != date || e.AssetType != trace.AssetTug || e.PumpedAmount <= 0 {
			continue
		}
		hod := math.Mod(e.Time, 24)
		out = append(out, Delivery{
			Hour:        hod,
			Time:        clock(hod),
			Tug:         tugName(e.AssetID),
			Destination: e.Location,
			Volume:      e.PumpedAmount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// clock renders an hour of day as h:mm AM/PM.
func clock(hour float64) string {
	h := int(math.Floor(hour))
	m := int(math.Round((hour - float64(h)) * 60))
	if m == 60 {
		h, m = h+1, 0
	}
	ampm := "AM"
	if h%24 >= 12 {
		ampm = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, m, ampm)
}

func alerts(active []ActiveHDD, hdds []*sim.HDD, day float64) []Note {
	var out []Note
	for _, a := range active {
		switch a.Status {
		case StatusCritical:
			out = append(out, Note{
				Type:   "critical",
				Title:  a.Crossing + " Storage Critical",
				Detail: fmt.Sprintf("Only %.0fh supply remaining. Immediate delivery required.", a.SupplyHours),
			})
		case StatusWarning:
			out = append(out, Note{
				Type:   "warning",
				Title:  a.Crossing + " Storage Low",
				Detail: fmt.Sprintf("%.0fh supply remaining. Priority delivery recommended.", a.SupplyHours),
			})
		case StatusStandby:
			out = append(out, Note{
				Type:   "info",
				Title:  fmt.Sprintf("%s Rig-Up in Progress", a.Crossing),
				Detail: fmt.Sprintf("%s Rig in %s phase. Storage: %.0f%% pre-staged.", a.Rig, a.Phase, a.StoragePercent),
			})
		}
	}
	for _, h := range hdds {
		days := int(math.Ceil((h.Pilot - day) / 24))
		if days < 1 || days > 3 {
			continue
		}
		plural := "s"
		if days == 1 {
			plural = ""
		}
		out = append(out, Note{
			Type:   "info",
			Title:  fmt.Sprintf("%s Pilot Start in %d Day%s", h.Crossing, days, plural),
			Detail: fmt.Sprintf("%s Rig scheduled to begin pilot drilling. Verify storage pre-staged.", h.Rig),
		})
	}
	return out
}

func recommendations(active []ActiveHDD) []Note {
	var out []Note
	for _, a := range active {
		switch a.Status {
		case StatusHealthy:
			out = append(out, Note{
				Type:   "info",
				Title:  fmt.Sprintf("Maintain %s Steady State", a.Crossing),
				Detail: fmt.Sprintf("%.0fh supply buffer is healthy. Continue scheduled delivery rotations.", a.SupplyHours),
			})
		case StatusWarning:
			out = append(out, Note{
				Type:   "warning",
				Title:  fmt.Sprintf("Prioritize %s Deliveries", a.Crossing),
				Detail: fmt.Sprintf("Storage at %.0f%%. Dispatch next available tug.", a.StoragePercent),
			})
		}
	}
	return out
}
