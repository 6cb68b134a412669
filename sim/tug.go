package sim

import "fmt"

// TugState is the sealed set of tug states. Each variant carries only the
// data that state needs; the event loop switches over variants exhaustively.
type TugState interface {
	isTugState()
	// Status is the log tag of the state.
	Status() string
}

// RigPhase is the sub-phase of a tug serviced at a rig.
type RigPhase int

const (
	Hookup RigPhase = iota
	Pumping
	Disconnect
)

func (p RigPhase) String() string {
	switch p {
	case Hookup:
		return "hookup"
	case Pumping:
		return "pumping"
	default:
		return "disconnect"
	}
}

// Idle: moored at a source, free for dispatch.
type Idle struct{}

// EnRouteLoaded: towing water to a crossing.
type EnRouteLoaded struct {
	Arrival  float64
	Crossing string
}

// ArrivedAtRig: on site, queued for the single pump connection.
type ArrivedAtRig struct {
	Crossing string
	Since    float64
}

// AtRig: holding the pump connection.
type AtRig struct {
	Crossing string
	Phase    RigPhase
	Until    float64 // end of hookup or disconnect
	Target   float64 // gallons planned for this stop
	Pumped   float64
}

// EnRouteEmpty: returning to a source, possibly towing retrieved barges.
type EnRouteEmpty struct {
	Arrival float64
	Source  string
}

// EnRouteStorage: delivering storage barges to a crossing.
type EnRouteStorage struct {
	Arrival  float64
	Crossing string
	Intent   int
}

// DirectDelivery: rerouted from one crossing straight to another.
type DirectDelivery struct {
	Arrival  float64
	From     string
	Crossing string
}

// ThrottledStandby: staying at a crossing and metering water into storage.
type ThrottledStandby struct {
	Crossing  string
	NextCheck float64
}

// PickupPurpose says what a tug does when an en-route-pickup leg ends.
type PickupPurpose int

const (
	// RetrieveStorage collects stationed barges from a finished crossing.
	RetrieveStorage PickupPurpose = iota
	// Reposition moves an idle tug to a source that holds filled barges.
	Reposition
)

// EnRoutePickup: running light to collect barges.
type EnRoutePickup struct {
	Arrival float64
	Target  string
	Purpose PickupPurpose
	Intent  int
}

// Demobilized: out of service for good.
type Demobilized struct {
	At float64
}

func (Idle) isTugState()             {}
func (EnRouteLoaded) isTugState()    {}
func (ArrivedAtRig) isTugState()     {}
func (AtRig) isTugState()            {}
func (EnRouteEmpty) isTugState()     {}
func (EnRouteStorage) isTugState()   {}
func (DirectDelivery) isTugState()   {}
func (ThrottledStandby) isTugState() {}
func (EnRoutePickup) isTugState()    {}
func (Demobilized) isTugState()      {}

func (Idle) Status() string             { return "idle" }
func (EnRouteLoaded) Status() string    { return "en-route-loaded" }
func (ArrivedAtRig) Status() string     { return "arrived-at-rig" }
func (s AtRig) Status() string          { return s.Phase.String() }
func (EnRouteEmpty) Status() string     { return "en-route-empty" }
func (EnRouteStorage) Status() string   { return "en-route-storage" }
func (DirectDelivery) Status() string   { return "direct-hdd-delivery" }
func (ThrottledStandby) Status() string { return "throttled-standby" }
func (EnRoutePickup) Status() string    { return "en-route-pickup" }
func (Demobilized) Status() string      { return "demobilized" }

// Stop is one leg of a tug's delivery plan.
type Stop struct {
	Rig      string
	Crossing string
	Volume   float64
	Urgency  float64
}

// Tug is a mobile mover. Attached barges are not stored here; the kernel is
// the only record of what a tug is towing.
type Tug struct {
	ID       string
	State    TugState
	Location string // source or crossing while stationary, "" while under way
	Home     string // source it was mobilized at

	Plan    []Stop
	StopIdx int

	MobilizedAt  float64
	RunningHours float64
	IdleHours    float64
}

// Active reports whether the tug is still in service.
func (t *Tug) Active() bool {
	_, gone := t.State.(Demobilized)
	return !gone
}

// IsIdle reports whether the tug is moored at a source and free.
func (t *Tug) IsIdle() bool {
	_, ok := t.State.(Idle)
	return ok
}

// Underway reports whether the tug is burning running fuel.
func (t *Tug) Underway() bool {
	switch t.State.(type) {
	case EnRouteLoaded, EnRouteEmpty, EnRouteStorage, DirectDelivery, EnRoutePickup:
		return true
	}
	return false
}

// Target is the crossing the tug is delivering water to, or "".
func (t *Tug) Target() string {
	switch s := t.State.(type) {
	case EnRouteLoaded:
		return s.Crossing
	case ArrivedAtRig:
		return s.Crossing
	case AtRig:
		return s.Crossing
	case DirectDelivery:
		return s.Crossing
	case ThrottledStandby:
		return s.Crossing
	}
	return ""
}

// CurrentStop is the active plan leg, if any.
func (t *Tug) CurrentStop() (Stop, bool) {
	if t.StopIdx < 0 || t.StopIdx >= len(t.Plan) {
		return Stop{}, false
	}
	return t.Plan[t.StopIdx], true
}

func (t *Tug) String() string {
	return fmt.Sprintf("Tug(%s %s loc=%q stop=%d/%d)", t.ID, t.State.Status(), t.Location, t.StopIdx, len(t.Plan))
}
