package sim

import (
	"container/heap"
	"fmt"

	"github.com/hddwater/bargesim/sim/kernel"
)

// IntentKind distinguishes the scheduled actions the event loop executes.
type IntentKind int

const (
	// IntentStorage tows storage barges from a source to a crossing.
	IntentStorage IntentKind = iota
	// IntentTransfer reassigns stationed barges to the rig's next crossing.
	IntentTransfer
	// IntentTransport delivers water to a crossing.
	IntentTransport
	// IntentReturn collects storage barges from a finished crossing.
	IntentReturn
)

func (k IntentKind) String() string {
	switch k {
	case IntentStorage:
		return "storage"
	case IntentTransfer:
		return "transfer"
	case IntentTransport:
		return "transport"
	default:
		return "return"
	}
}

// IntentStatus is the lifecycle of a delivery intent.
type IntentStatus string

const (
	IntentPending    IntentStatus = "pending"
	IntentDispatched IntentStatus = "dispatched"
	IntentAbandoned  IntentStatus = "abandoned"
	// IntentSkipped marks an intent that was no longer needed when due.
	IntentSkipped IntentStatus = "skipped"
)

// Priority marks whether an intent kept its planned slot.
type Priority string

const (
	PriorityScheduled Priority = "scheduled"
	PriorityDeferred  Priority = "deferred"
)

// DeliveryIntent is a precomputed future action.
type DeliveryIntent struct {
	ID     int
	Kind   IntentKind
	Source string
	HDD    string // destination crossing
	Rig    string
	From   string // previous crossing for transfers

	Size   kernel.Size
	Barges int     // storage barges in this chunk
	Volume float64 // transport gallons

	FillStart float64
	Dispatch  float64
	Arrival   float64
	Deadline  float64 // abandoned after this hour

	Status     IntentStatus
	Attempts   int
	NextRetry  float64
	PlannedTug int // index into the greedy tug plan, -1 if none
	Priority   Priority
}

// Due is the earliest hour the intent may next be attempted.
func (d *DeliveryIntent) Due() float64 {
	return max(d.Dispatch, d.NextRetry)
}

func (d *DeliveryIntent) String() string {
	return fmt.Sprintf("Intent(#%d %s %s->%s dispatch=%.2f %s)", d.ID, d.Kind, d.Source, d.HDD, d.Dispatch, d.Status)
}

// IntentQueue implements heap.Interface and orders intents by due time, then id.
type IntentQueue []*DeliveryIntent

func (q IntentQueue) Len() int { return len(q) }
func (q IntentQueue) Less(i, j int) bool {
	if q[i].Due() != q[j].Due() {
		return q[i].Due() < q[j].Due()
	}
	return q[i].ID < q[j].ID
}
func (q IntentQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *IntentQueue) Push(x any) {
	*q = append(*q, x.(*DeliveryIntent))
}

func (q *IntentQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// Schedule adds an intent.
func (q *IntentQueue) Schedule(d *DeliveryIntent) {
	heap.Push(q, d)
}

// PopDue removes and returns every intent due at or before now, in order.
func (q *IntentQueue) PopDue(now float64) []*DeliveryIntent {
	var due []*DeliveryIntent
	for q.Len() > 0 && (*q)[0].Due() <= now {
		due = append(due, heap.Pop(q).(*DeliveryIntent))
	}
	return due
}

// Pending returns the queued intents without removing them.
func (q IntentQueue) Pending() []*DeliveryIntent {
	return append([]*DeliveryIntent(nil), q...)
}
