package tracker

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of an occupancy record.
type State string

const (
	StateQueued     State = "queued"
	StateAssigned   State = "assigned"
	StateClockedOut State = "clocked_out"
)

// SlotID is the 1-based position of a slot in the venue layout. Zero means no slot.
type SlotID int

// Record is one party: headcounts per patron category, a free-form
// description and the time it arrived.
type Record struct {
	ID          uuid.UUID
	Adults      int
	Students    int
	Description string
	ArrivedAt   time.Time
	State       State
	Slot        SlotID
}

// Merge combines two parties into a new record with a fresh id. Headcounts
// add up, the earliest arrival wins and a's description comes first.
func Merge(a, b Record) Record {
	arrived := a.ArrivedAt
	if b.ArrivedAt.Before(arrived) {
		arrived = b.ArrivedAt
	}
	return Record{
		ID:          uuid.New(),
		Adults:      a.Adults + b.Adults,
		Students:    a.Students + b.Students,
		Description: a.Description + ", " + b.Description,
		ArrivedAt:   arrived,
	}
}
