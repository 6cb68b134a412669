package kernel

import (
	"fmt"
	"maps"
	"slices"
)

// Validate cross-checks every index against every barge and returns one error
// per inconsistency found. A nil result means the ledger is consistent.
//
// Categories:
//   - orphan: barge names a tug whose attachment list does not contain it
//   - ghost: attachment list names a missing barge or one that names another tug
//   - pool: pooled barge with a tug, a foreign location, or duplicated
//   - stationing: stationed barge whose assigned HDD disagrees with the index
//   - unowned: live barge held by no index, or by more than one
//   - level: barge fill outside [0, volume]
//
// Ownership moves happen inside a single mutator call, so a barge is never
// observed between owners.
func (k *Kernel) Validate() []error {
	var errs []error
	holders := make(map[string]int, len(k.barges))

	for _, tug := range slices.Sorted(maps.Keys(k.attached)) {
		for _, id := range k.attached[tug] {
			b, ok := k.barges[id]
			if !ok {
				errs = append(errs, fmt.Errorf("ghost: tug %s lists missing barge %s", tug, id))
				continue
			}
			if b.tug != tug {
				errs = append(errs, fmt.Errorf("ghost: tug %s lists barge %s which names tug %q", tug, id, b.tug))
			}
			holders[id]++
		}
	}
	for _, src := range slices.Sorted(maps.Keys(k.pools)) {
		for _, id := range k.pools[src] {
			b, ok := k.barges[id]
			if !ok {
				errs = append(errs, fmt.Errorf("pool: source %s lists missing barge %s", src, id))
				continue
			}
			if b.tug != "" {
				errs = append(errs, fmt.Errorf("pool: barge %s pooled at %s but attached to %s", id, src, b.tug))
			}
			if b.location != src {
				errs = append(errs, fmt.Errorf("pool: barge %s pooled at %s but located at %q", id, src, b.location))
			}
			holders[id]++
		}
	}
	for _, hdd := range slices.Sorted(maps.Keys(k.station)) {
		for _, id := range k.station[hdd] {
			b, ok := k.barges[id]
			if !ok {
				errs = append(errs, fmt.Errorf("stationing: %s lists missing barge %s", hdd, id))
				continue
			}
			if b.hdd != hdd {
				errs = append(errs, fmt.Errorf("stationing: barge %s stationed at %s but assigned to %q", id, hdd, b.hdd))
			}
			holders[id]++
		}
	}
	for _, src := range slices.Sorted(maps.Keys(k.filling)) {
		id := k.filling[src]
		b, ok := k.barges[id]
		if !ok || b.tug != "" || b.location != src {
			errs = append(errs, fmt.Errorf("pool: fill slot of %s holds barge %s which is not pooled there", src, id))
		}
	}

	for _, b := range k.order {
		if b.tug != "" && !slices.Contains(k.attached[b.tug], b.id) {
			errs = append(errs, fmt.Errorf("orphan: barge %s names tug %s which does not list it", b.id, b.tug))
		}
		if b.hdd != "" && !slices.Contains(k.station[b.hdd], b.id) {
			errs = append(errs, fmt.Errorf("stationing: barge %s assigned to %s but not in its stationed set", b.id, b.hdd))
		}
		if b.fill < 0 || b.fill > b.volume {
			errs = append(errs, fmt.Errorf("level: barge %s fill %.1f outside [0, %.1f]", b.id, b.fill, b.volume))
		}
		n := holders[b.id]
		switch {
		case b.retired && n > 0:
			errs = append(errs, fmt.Errorf("unowned: retired barge %s still held by %d indexes", b.id, n))
		case !b.retired && n == 0:
			errs = append(errs, fmt.Errorf("unowned: barge %s is held by no index", b.id))
		case n > 1:
			errs = append(errs, fmt.Errorf("unowned: barge %s is held by %d indexes", b.id, n))
		}
	}
	return errs
}
