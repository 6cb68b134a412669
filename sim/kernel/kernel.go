// Package kernel is the single owner of every relationship between barges,
// tugs, water sources and HDD storage sites.
//
// A barge is held by exactly one of: a source free pool, a tug, or an HDD
// stationed set (retired barges are held by none and ignored). Every mutator
// updates all affected indexes before it returns, and validates its inputs
// before touching anything, so a failed call leaves the kernel unchanged.
// Callers never see a partially applied mutation.
//
// Thread-safety: NOT thread-safe. The simulation engine is single-threaded.
package kernel

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrUnknownBarge is returned when a mutator is given an id the kernel does not hold.
var ErrUnknownBarge = errors.New("unknown barge")

// ErrUnknownTug is returned when a tug id has not been registered.
var ErrUnknownTug = errors.New("unknown tug")

// ErrUnknownLocation is returned when a location is neither a registered source nor HDD.
var ErrUnknownLocation = errors.New("unknown location")

// Kernel holds the canonical ownership indexes.
type Kernel struct {
	barges map[string]*Barge
	order  []*Barge // creation order, used for every deterministic iteration

	tugs     map[string]bool
	sources  map[string]bool
	hdds     map[string]bool
	attached map[string][]string // tug -> barge ids, attach order
	pools    map[string][]string // source -> barge ids, pooling order
	station  map[string][]string // hdd -> barge ids, stationing order
	filling  map[string]string   // source -> barge currently filling

	seq int
}

// New creates an empty kernel.
func New() *Kernel {
	return &Kernel{
		barges:   make(map[string]*Barge),
		tugs:     make(map[string]bool),
		sources:  make(map[string]bool),
		hdds:     make(map[string]bool),
		attached: make(map[string][]string),
		pools:    make(map[string][]string),
		station:  make(map[string][]string),
		filling:  make(map[string]string),
	}
}

// RegisterSource declares a water source location.
func (k *Kernel) RegisterSource(id string) {
	k.sources[id] = true
}

// RegisterHDD declares an HDD crossing location.
func (k *Kernel) RegisterHDD(id string) {
	k.hdds[id] = true
}

// RegisterTug declares a tug so barges can be attached to it.
func (k *Kernel) RegisterTug(id string) error {
	if k.tugs[id] {
		return fmt.Errorf("tug %s already registered", id)
	}
	k.tugs[id] = true
	return nil
}

// IsSource reports whether id is a registered source.
func (k *Kernel) IsSource(id string) bool { return k.sources[id] }

// IsHDD reports whether id is a registered HDD crossing.
func (k *Kernel) IsHDD(id string) bool { return k.hdds[id] }

// AddBarge creates an empty barge in the free pool of source.
func (k *Kernel) AddBarge(id string, size Size, role Role, volume float64, source string) (*Barge, error) {
	if _, exists := k.barges[id]; exists {
		return nil, fmt.Errorf("barge %s already exists", id)
	}
	if !k.sources[source] {
		return nil, fmt.Errorf("add barge %s at %q: %w", id, source, ErrUnknownLocation)
	}
	if volume <= 0 {
		return nil, fmt.Errorf("barge %s: volume must be positive, got %f", id, volume)
	}
	k.seq++
	b := &Barge{
		id:       id,
		size:     size,
		role:     role,
		volume:   volume,
		location: source,
		status:   StatusIdle,
		seq:      k.seq,
	}
	k.barges[id] = b
	k.order = append(k.order, b)
	k.pools[source] = append(k.pools[source], id)
	return b, nil
}

// Barge returns the barge with the given id.
func (k *Kernel) Barge(id string) (*Barge, bool) {
	b, ok := k.barges[id]
	return b, ok
}

// Barges returns all barges, retired included, in creation order.
func (k *Kernel) Barges() []*Barge {
	return slices.Clone(k.order)
}

// AttachedBarges returns the barges attached to tug, in attach order.
func (k *Kernel) AttachedBarges(tug string) []*Barge {
	return k.resolve(k.attached[tug])
}

// AttachedIDs returns the ids attached to tug, in attach order.
func (k *Kernel) AttachedIDs(tug string) []string {
	return slices.Clone(k.attached[tug])
}

// PooledBarges returns every barge in the free pool of source, in pooling order.
func (k *Kernel) PooledBarges(source string) []*Barge {
	return k.resolve(k.pools[source])
}

// FreeBargesAtSource returns pooled barges at source matching size and role.
func (k *Kernel) FreeBargesAtSource(source string, size Size, role Role) []*Barge {
	var out []*Barge
	for _, id := range k.pools[source] {
		b := k.barges[id]
		if b.size == size && b.role == role {
			out = append(out, b)
		}
	}
	return out
}

// StationedBarges returns the barges stationed at hdd, in stationing order.
func (k *Kernel) StationedBarges(hdd string) []*Barge {
	return k.resolve(k.station[hdd])
}

// Storage returns the total level and capacity of the barges stationed at hdd.
func (k *Kernel) Storage(hdd string) (level, capacity float64) {
	for _, id := range k.station[hdd] {
		b := k.barges[id]
		level += b.fill
		capacity += b.volume
	}
	return level, capacity
}

// TugWater is the water carried by the barges attached to tug.
func (k *Kernel) TugWater(tug string) float64 {
	total := 0.0
	for _, id := range k.attached[tug] {
		total += k.barges[id].fill
	}
	return total
}

// TugCapacity is the combined volume of the barges attached to tug.
func (k *Kernel) TugCapacity(tug string) float64 {
	total := 0.0
	for _, id := range k.attached[tug] {
		total += k.barges[id].volume
	}
	return total
}

// Filling returns the barge occupying the fill slot of source, or nil.
func (k *Kernel) Filling(source string) *Barge {
	id, ok := k.filling[source]
	if !ok {
		return nil
	}
	return k.barges[id]
}

// NextToFill returns the pooled barge at source with the oldest fill request
// among those not full and not already filling. Ties keep creation order.
func (k *Kernel) NextToFill(source string) *Barge {
	var best *Barge
	for _, id := range k.pools[source] {
		b := k.barges[id]
		if !b.fillRequested || b.fill >= b.volume || b.tug != "" || k.filling[source] == id {
			continue
		}
		if best == nil || b.fillRequestedAt < best.fillRequestedAt ||
			(b.fillRequestedAt == best.fillRequestedAt && b.seq < best.seq) {
			best = b
		}
	}
	return best
}

// AttachBarges hands the listed barges to tug. Each barge leaves its pool or
// stationed set, loses any pending fill request and its fill slot, and gets status.
func (k *Kernel) AttachBarges(tug string, ids []string, status Status) error {
	if !k.tugs[tug] {
		return fmt.Errorf("attach to %s: %w", tug, ErrUnknownTug)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		b, ok := k.barges[id]
		if !ok {
			return fmt.Errorf("attach %s: %w", id, ErrUnknownBarge)
		}
		if b.retired {
			return fmt.Errorf("attach %s: barge is retired", id)
		}
		if b.tug != "" {
			return fmt.Errorf("attach %s to %s: already attached to %s", id, tug, b.tug)
		}
		if seen[id] {
			return fmt.Errorf("attach %s: listed twice", id)
		}
		seen[id] = true
	}
	for _, id := range ids {
		b := k.barges[id]
		if k.sources[b.location] {
			k.pools[b.location] = remove(k.pools[b.location], id)
			if k.filling[b.location] == id {
				delete(k.filling, b.location)
			}
		}
		if b.hdd != "" {
			k.station[b.hdd] = remove(k.station[b.hdd], id)
			b.hdd = ""
		}
		b.fillRequested = false
		b.fillRequestedAt = 0
		b.tug = tug
		b.location = ""
		b.status = status
		k.attached[tug] = append(k.attached[tug], id)
	}
	return nil
}

// DetachBarges releases the listed barges from tug at location. A source
// location pools them; an HDD location stations them there.
func (k *Kernel) DetachBarges(tug string, ids []string, location string) error {
	if !k.tugs[tug] {
		return fmt.Errorf("detach from %s: %w", tug, ErrUnknownTug)
	}
	toSource := k.sources[location]
	toHDD := k.hdds[location]
	if !toSource && !toHDD {
		return fmt.Errorf("detach to %q: %w", location, ErrUnknownLocation)
	}
	for _, id := range ids {
		b, ok := k.barges[id]
		if !ok {
			return fmt.Errorf("detach %s: %w", id, ErrUnknownBarge)
		}
		if b.tug != tug {
			return fmt.Errorf("detach %s from %s: attached to %q", id, tug, b.tug)
		}
	}
	for _, id := range ids {
		b := k.barges[id]
		k.attached[tug] = remove(k.attached[tug], id)
		b.tug = ""
		b.location = location
		if toSource {
			b.status = StatusIdle
			k.pools[location] = append(k.pools[location], id)
		} else {
			b.status = StatusStationed
			b.hdd = location
			k.station[location] = append(k.station[location], id)
		}
	}
	if len(k.attached[tug]) == 0 {
		delete(k.attached, tug)
	}
	return nil
}

// DetachAll releases every barge attached to tug at location and returns them.
func (k *Kernel) DetachAll(tug, location string) ([]*Barge, error) {
	ids := k.AttachedIDs(tug)
	if err := k.DetachBarges(tug, ids, location); err != nil {
		return nil, err
	}
	return k.resolve(ids), nil
}

// StationBargeAtHDD moves a tug-attached barge into the stationed set of hdd.
func (k *Kernel) StationBargeAtHDD(bargeID, hdd string) error {
	b, ok := k.barges[bargeID]
	if !ok {
		return fmt.Errorf("station %s: %w", bargeID, ErrUnknownBarge)
	}
	if !k.hdds[hdd] {
		return fmt.Errorf("station %s at %q: %w", bargeID, hdd, ErrUnknownLocation)
	}
	if b.tug == "" {
		return fmt.Errorf("station %s: barge is not attached to a tug", bargeID)
	}
	return k.DetachBarges(b.tug, []string{bargeID}, hdd)
}

// UnstationBargeFromHDD hands a stationed barge to tug for retrieval.
func (k *Kernel) UnstationBargeFromHDD(bargeID, tug string) error {
	b, ok := k.barges[bargeID]
	if !ok {
		return fmt.Errorf("unstation %s: %w", bargeID, ErrUnknownBarge)
	}
	if b.hdd == "" {
		return fmt.Errorf("unstation %s: barge is not stationed", bargeID)
	}
	return k.AttachBarges(tug, []string{bargeID}, StatusEnRouteEmpty)
}

// TransferStationed reassigns stationed barges from one HDD to another in a
// single step. The barges keep their water.
func (k *Kernel) TransferStationed(ids []string, from, to string) error {
	if !k.hdds[to] {
		return fmt.Errorf("transfer to %q: %w", to, ErrUnknownLocation)
	}
	for _, id := range ids {
		b, ok := k.barges[id]
		if !ok {
			return fmt.Errorf("transfer %s: %w", id, ErrUnknownBarge)
		}
		if b.hdd != from {
			return fmt.Errorf("transfer %s: stationed at %q, not %q", id, b.hdd, from)
		}
	}
	for _, id := range ids {
		b := k.barges[id]
		k.station[from] = remove(k.station[from], id)
		b.hdd = to
		b.location = to
		k.station[to] = append(k.station[to], id)
	}
	return nil
}

// SetStatus updates the descriptive status of a barge.
func (k *Kernel) SetStatus(id string, status Status) error {
	b, ok := k.barges[id]
	if !ok {
		return fmt.Errorf("set status %s: %w", id, ErrUnknownBarge)
	}
	b.status = status
	return nil
}

// SetRole flips a pooled barge between transport and storage duty. Roles only
// change while the barge sits in a source pool.
func (k *Kernel) SetRole(id string, role Role) error {
	b, ok := k.barges[id]
	if !ok {
		return fmt.Errorf("set role %s: %w", id, ErrUnknownBarge)
	}
	if b.tug != "" || !k.sources[b.location] {
		return fmt.Errorf("set role %s: barge is not in a source pool", id)
	}
	b.role = role
	return nil
}

// Retire removes a pooled barge from service. Retired barges keep their id
// and water but belong to no index.
func (k *Kernel) Retire(id string) error {
	b, ok := k.barges[id]
	if !ok {
		return fmt.Errorf("retire %s: %w", id, ErrUnknownBarge)
	}
	if b.tug != "" || !k.sources[b.location] {
		return fmt.Errorf("retire %s: barge is not in a source pool", id)
	}
	k.pools[b.location] = remove(k.pools[b.location], id)
	if k.filling[b.location] == id {
		delete(k.filling, b.location)
	}
	b.fillRequested = false
	b.retired = true
	b.status = StatusDemobilized
	return nil
}

// RetireTug unregisters a tug with no attached barges.
func (k *Kernel) RetireTug(tug string) error {
	if !k.tugs[tug] {
		return fmt.Errorf("retire %s: %w", tug, ErrUnknownTug)
	}
	if len(k.attached[tug]) > 0 {
		return fmt.Errorf("retire %s: %d barges still attached", tug, len(k.attached[tug]))
	}
	delete(k.tugs, tug)
	return nil
}

// RequestFill queues a pooled barge for filling at its source. Full barges are
// never queued; it returns false for them.
func (k *Kernel) RequestFill(id string, now float64) (bool, error) {
	b, ok := k.barges[id]
	if !ok {
		return false, fmt.Errorf("request fill %s: %w", id, ErrUnknownBarge)
	}
	if b.tug != "" || !k.sources[b.location] {
		return false, fmt.Errorf("request fill %s: barge is not in a source pool", id)
	}
	if b.fill >= b.volume {
		return false, nil
	}
	if !b.fillRequested {
		b.fillRequested = true
		b.fillRequestedAt = now
	}
	if k.filling[b.location] != id {
		b.status = StatusQueued
	}
	return true, nil
}

// StartFill occupies the fill slot of source with the next queued barge if the
// slot is free. It returns the barge in the slot, or nil if nothing is queued.
func (k *Kernel) StartFill(source string) *Barge {
	if b := k.Filling(source); b != nil {
		return b
	}
	next := k.NextToFill(source)
	if next == nil {
		return nil
	}
	k.filling[source] = next.id
	next.status = StatusFilling
	return next
}

// AddFill pours up to gallons into the barge filling at source. It returns the
// volume added and the barge if this call completed it.
func (k *Kernel) AddFill(source string, gallons float64) (float64, *Barge) {
	b := k.Filling(source)
	if b == nil || gallons <= 0 {
		return 0, nil
	}
	added := min(gallons, b.volume-b.fill)
	b.fill += added
	if b.fill >= b.volume {
		b.fill = b.volume
		k.CompleteFill(b.id)
		return added, b
	}
	return added, nil
}

// CompleteFill releases the fill slot held by the barge and clears its request.
func (k *Kernel) CompleteFill(id string) {
	b, ok := k.barges[id]
	if !ok {
		return
	}
	if k.filling[b.location] == id {
		delete(k.filling, b.location)
	}
	b.fillRequested = false
	b.fillRequestedAt = 0
	b.status = StatusIdle
}

// FillStorage adds up to gallons to the barges stationed at hdd, emptiest
// barge first. It returns the volume actually stored.
func (k *Kernel) FillStorage(hdd string, gallons float64) float64 {
	if gallons <= 0 {
		return 0
	}
	barges := k.StationedBarges(hdd)
	sort.SliceStable(barges, func(i, j int) bool { return barges[i].fill < barges[j].fill })
	stored := 0.0
	for _, b := range barges {
		if gallons-stored <= 0 {
			break
		}
		add := min(gallons-stored, b.volume-b.fill)
		if add <= 0 {
			continue
		}
		b.fill += add
		stored += add
	}
	return stored
}

// DrawStorage removes up to gallons from the barges stationed at hdd, fullest
// barge first. It returns the volume actually drawn.
func (k *Kernel) DrawStorage(hdd string, gallons float64) float64 {
	if gallons <= 0 {
		return 0
	}
	barges := k.StationedBarges(hdd)
	sort.SliceStable(barges, func(i, j int) bool { return barges[i].fill > barges[j].fill })
	drawn := 0.0
	for _, b := range barges {
		if gallons-drawn <= 0 {
			break
		}
		take := min(gallons-drawn, b.fill)
		if take <= 0 {
			continue
		}
		b.fill -= take
		drawn += take
	}
	return drawn
}

// SetStorageLevel moves the stored total at hdd to level, clamped to
// [0, capacity], by distributing the difference across the stationed barges.
func (k *Kernel) SetStorageLevel(hdd string, level float64) float64 {
	current, capacity := k.Storage(hdd)
	level = max(0, min(level, capacity))
	switch {
	case level > current:
		k.FillStorage(hdd, level-current)
	case level < current:
		k.DrawStorage(hdd, current-level)
	}
	after, _ := k.Storage(hdd)
	return after
}

// TransferToStorage pumps up to gallons from the barges attached to tug into
// the storage at hdd. The moved volume is bounded by the tug's water and the
// storage headroom, so storage never overfills.
func (k *Kernel) TransferToStorage(tug, hdd string, gallons float64) float64 {
	level, capacity := k.Storage(hdd)
	moved := min(gallons, k.TugWater(tug), capacity-level)
	if moved <= 0 {
		return 0
	}
	barges := k.AttachedBarges(tug)
	sort.SliceStable(barges, func(i, j int) bool { return barges[i].fill > barges[j].fill })
	left := moved
	for _, b := range barges {
		if left <= 0 {
			break
		}
		take := min(left, b.fill)
		b.fill -= take
		left -= take
	}
	stored := k.FillStorage(hdd, moved-left)
	return stored
}

// TotalWater is the water held by every barge, retired ones included.
func (k *Kernel) TotalWater() float64 {
	total := 0.0
	for _, b := range k.order {
		total += b.fill
	}
	return total
}

func (k *Kernel) resolve(ids []string) []*Barge {
	out := make([]*Barge, 0, len(ids))
	for _, id := range ids {
		out = append(out, k.barges[id])
	}
	return out
}

func remove(ids []string, id string) []string {
	idx := slices.Index(ids, id)
	if idx < 0 {
		return ids
	}
	return slices.Delete(ids, idx, idx+1)
}
