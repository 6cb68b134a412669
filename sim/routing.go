package sim

import (
	"errors"
	"maps"
	"math"
	"slices"

	"github.com/hddwater/bargesim/sim/kernel"
)

// ErrNoRoute is returned when no distance is known between two locations.
var ErrNoRoute = errors.New("no route")

// DistanceOracle answers nautical-mile distances between named sources and
// crossings. ok is false when the pair has no known route.
type DistanceOracle interface {
	Distance(a, b string) (nm float64, ok bool)
}

// Router derives travel, fill and cycle times from a DistanceOracle and the
// vessel configuration.
type Router struct {
	oracle  DistanceOracle
	cfg     Config
	sources []string
}

// NewRouter builds a router over the configured sources.
func NewRouter(oracle DistanceOracle, cfg Config) *Router {
	return &Router{
		oracle:  oracle,
		cfg:     cfg,
		sources: slices.Sorted(maps.Keys(cfg.Sources)),
	}
}

// Sources returns the source ids in sorted order.
func (r *Router) Sources() []string { return r.sources }

// Distance is the oracle distance, symmetric and zero for a location to itself.
func (r *Router) Distance(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	if d, ok := r.oracle.Distance(a, b); ok {
		return d, true
	}
	return r.oracle.Distance(b, a)
}

// LoadedSpeed is the towing speed for a load of the given barge size.
func (r *Router) LoadedSpeed(size kernel.Size) float64 {
	if size == kernel.Large {
		return r.cfg.LoadedSpeedLarge
	}
	return r.cfg.LoadedSpeedSmall
}

// TravelHours is distance / speed between two locations.
func (r *Router) TravelHours(a, b string, speed float64) (float64, bool) {
	d, ok := r.Distance(a, b)
	if !ok || speed <= 0 {
		return 0, false
	}
	return d / speed, true
}

// LoadedHours is the loaded transit time for a load of the given barge size.
func (r *Router) LoadedHours(a, b string, size kernel.Size) (float64, bool) {
	return r.TravelHours(a, b, r.LoadedSpeed(size))
}

// EmptyHours is the transit time running light.
func (r *Router) EmptyHours(a, b string) (float64, bool) {
	return r.TravelHours(a, b, r.cfg.EmptySpeed)
}

// FillHours is the wall-clock time a source needs to pump gallons, stretched
// by its daily operating window.
func (r *Router) FillHours(source string, gallons float64) float64 {
	src, ok := r.cfg.Sources[source]
	if !ok || src.FlowRate <= 0 {
		return math.Inf(1)
	}
	perHour := src.FlowRate * 60 * src.HoursPerDay / 24
	return gallons / perHour
}

// PumpHours is the time to pump gallons into rig storage.
func (r *Router) PumpHours(gallons float64) float64 {
	return gallons / (r.cfg.PumpRate * 60)
}

// CycleHours is one full delivery cycle from a source: fill, switchout, loaded
// transit, hookup, pump, disconnect and the empty return.
func (r *Router) CycleHours(source, crossing string, gallons float64, size kernel.Size) (float64, bool) {
	out, ok := r.LoadedHours(source, crossing, size)
	if !ok {
		return 0, false
	}
	back, ok := r.EmptyHours(crossing, source)
	if !ok {
		return 0, false
	}
	return r.FillHours(source, gallons) + r.cfg.SwitchoutTime + out +
		2*r.cfg.HookupTime + r.PumpHours(gallons) + back, true
}

// BestSource picks the source with the shortest cycle time to crossing. Ties
// resolve to the lexically smallest source id.
func (r *Router) BestSource(crossing string, gallons float64, size kernel.Size) (string, float64, bool) {
	best, bestHours := "", math.Inf(1)
	for _, src := range r.sources {
		h, ok := r.CycleHours(src, crossing, gallons, size)
		if ok && h < bestHours {
			best, bestHours = src, h
		}
	}
	return best, bestHours, best != ""
}

// NearestSource is the source reachable from loc in the least running-light time.
func (r *Router) NearestSource(loc string) (string, float64, bool) {
	best, bestHours := "", math.Inf(1)
	for _, src := range r.sources {
		h, ok := r.EmptyHours(loc, src)
		if ok && h < bestHours {
			best, bestHours = src, h
		}
	}
	return best, bestHours, best != ""
}

// Reachable reports whether crossing has a route to at least one source.
func (r *Router) Reachable(crossing string) bool {
	for _, src := range r.sources {
		if _, ok := r.Distance(src, crossing); ok {
			return true
		}
	}
	return false
}
