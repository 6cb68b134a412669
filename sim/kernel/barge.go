package kernel

import "fmt"

// Size is the barge size class.
type Size int

const (
	Small Size = iota
	Large
)

func (s Size) String() string {
	if s == Large {
		return "large"
	}
	return "small"
}

// Role distinguishes barges that move water from barges that buffer it on site.
type Role int

const (
	RoleTransport Role = iota
	RoleStorage
)

func (r Role) String() string {
	if r == RoleStorage {
		return "storage"
	}
	return "transport"
}

// Status is the descriptive lifecycle tag of a barge. Relationship state
// (tug, pool, stationing) is tracked by the kernel indexes, not by Status.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusFilling        Status = "filling"
	StatusIdle           Status = "idle"
	StatusEnRouteLoaded  Status = "en-route-loaded"
	StatusAtRig          Status = "at-rig"
	StatusEnRouteEmpty   Status = "en-route-empty"
	StatusEnRouteStorage Status = "en-route-storage"
	StatusStationed      Status = "stationed"
	StatusDraining       Status = "draining"
	StatusDemobilized    Status = "demobilized"
)

// Barge is a water container. Its fields are only written by Kernel methods;
// everything outside this package sees it through read-only accessors.
type Barge struct {
	id       string
	size     Size
	role     Role
	volume   float64
	fill     float64
	location string // source id, crossing id, or "" while attached to a tug
	tug      string
	hdd      string
	status   Status

	fillRequested   bool
	fillRequestedAt float64
	seq             int
	retired         bool
}

func (b *Barge) ID() string { return b.id }
func (b *Barge) Size() Size { return b.size }
func (b *Barge) Role() Role { return b.role }
func (b *Barge) Volume() float64 { return b.volume }
func (b *Barge) Fill() float64 { return b.fill }
func (b *Barge) Location() string { return b.location }
func (b *Barge) Tug() string { return b.tug }
func (b *Barge) AssignedHDD() string { return b.hdd }
func (b *Barge) Status() Status { return b.status }
func (b *Barge) Retired() bool { return b.retired }

// FillRequested reports whether the barge waits in its source's fill queue.
func (b *Barge) FillRequested() bool { return b.fillRequested }

// Headroom is the volume still missing before the barge is full.
func (b *Barge) Headroom() float64 { return b.volume - b.fill }

// IsFull reports fill == volume. Fill increments are capped at volume, so an
// exact comparison is safe.
func (b *Barge) IsFull() bool { return b.fill >= b.volume }

func (b *Barge) String() string {
	return fmt.Sprintf("Barge(%s %s/%s fill=%.0f/%.0f loc=%q tug=%q hdd=%q %s)",
		b.id, b.size, b.role, b.fill, b.volume, b.location, b.tug, b.hdd, b.status)
}
