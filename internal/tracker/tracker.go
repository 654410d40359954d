package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"table-tracking-backend/internal/tariff"
)

// DefaultMaxPerCategory is the reference headcount limit for each patron category.
const DefaultMaxPerCategory = 6

// DefaultClosedRetention is how many clocked-out records stay resolvable.
const DefaultClosedRetention = 1024

// Options configures a Tracker.
type Options struct {
	// Slots holds the label of every venue position; SlotID n refers to Slots[n-1].
	Slots          []string
	MaxPerCategory int
	// ClosedRetention bounds the clocked-out records kept for lookups; the
	// oldest are forgotten first and then resolve as ErrNotFound.
	ClosedRetention int
	// PerHead multiplies each category charge by its headcount.
	PerHead bool
	Clock   func() time.Time
}

// Patch lists the fields of a record to change. Nil fields are left alone.
type Patch struct {
	Adults      *int
	Students    *int
	Description *string
	ArrivedAt   *time.Time
}

// Receipt is the charge breakdown produced when a record is clocked out.
type Receipt struct {
	RecordID       uuid.UUID
	Adults         int
	Students       int
	Description    string
	Slot           SlotID
	SlotLabel      string
	ArrivedAt      time.Time
	ClockedOutAt   time.Time
	AdultsCharge   tariff.Cents
	StudentsCharge tariff.Cents
	Total          tariff.Cents
	Duration       time.Duration
}

// SlotView is a read-only projection of one slot.
type SlotView struct {
	ID       SlotID
	Label    string
	Occupant *Record
}

// Snapshot is a read-only copy of the slot grid and the queue.
type Snapshot struct {
	Slots []SlotView
	Queue []Record
}

type slot struct {
	label    string
	occupant uuid.UUID
}

// Tracker owns the queue and the slot grid and moves records through
// Queued -> Assigned -> ClockedOut. It is not safe for concurrent use; callers
// serialize commands.
type Tracker struct {
	tariff         *tariff.Tariff
	slots          []slot
	queue          []uuid.UUID
	records        map[uuid.UUID]*Record
	closed         []uuid.UUID
	retain         int
	maxPerCategory int
	perHead        bool
	now            func() time.Time
}

// New creates a Tracker with an empty queue and empty slots.
func New(t *tariff.Tariff, opts Options) *Tracker {
	slots := make([]slot, len(opts.Slots))
	for i, label := range opts.Slots {
		slots[i] = slot{label: label}
	}
	maxPer := opts.MaxPerCategory
	if maxPer <= 0 {
		maxPer = DefaultMaxPerCategory
	}
	retain := opts.ClosedRetention
	if retain <= 0 {
		retain = DefaultClosedRetention
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		tariff:         t,
		slots:          slots,
		records:        make(map[uuid.UUID]*Record),
		retain:         retain,
		maxPerCategory: maxPer,
		perHead:        opts.PerHead,
		now:            clock,
	}
}

// Create queues a new party. A nil arrivedAt means now.
func (t *Tracker) Create(adults, students int, description string, arrivedAt *time.Time) (Record, error) {
	if err := t.checkCounts(adults, students); err != nil {
		return Record{}, err
	}
	now := t.now()
	arrived := now
	if arrivedAt != nil {
		arrived = *arrivedAt
	}
	if arrived.After(now) {
		return Record{}, fmt.Errorf("%w: arrival %s is in the future", ErrInvalidInterval, arrived.Format(time.RFC3339))
	}

	rec := &Record{
		ID:          uuid.New(),
		Adults:      adults,
		Students:    students,
		Description: description,
		ArrivedAt:   arrived,
		State:       StateQueued,
	}
	t.records[rec.ID] = rec
	t.queue = append(t.queue, rec.ID)
	return *rec, nil
}

// Get returns a copy of the record with the given id.
func (t *Tracker) Get(id uuid.UUID) (Record, error) {
	rec, ok := t.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *rec, nil
}

// Edit applies the patch to a queued or assigned record. Nothing changes
// unless the whole patch is valid.
func (t *Tracker) Edit(id uuid.UUID, p Patch) (Record, error) {
	rec, err := t.active(id)
	if err != nil {
		return Record{}, err
	}

	next := *rec
	if p.Adults != nil {
		if err := t.checkCount("adults", *p.Adults); err != nil {
			return Record{}, err
		}
		next.Adults = *p.Adults
	}
	if p.Students != nil {
		if err := t.checkCount("students", *p.Students); err != nil {
			return Record{}, err
		}
		next.Students = *p.Students
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.ArrivedAt != nil {
		next.ArrivedAt = *p.ArrivedAt
	}

	if next.ArrivedAt.After(t.now()) {
		return Record{}, fmt.Errorf("%w: arrival %s is in the future", ErrInvalidInterval, next.ArrivedAt.Format(time.RFC3339))
	}

	*rec = next
	return next, nil
}

// Assign seats a record at a slot. An occupied slot is merged with the
// incoming record: the merged record replaces the occupant and both previous
// ids stop resolving. Returns the record now occupying the slot.
func (t *Tracker) Assign(id uuid.UUID, slotID SlotID) (Record, error) {
	rec, err := t.active(id)
	if err != nil {
		return Record{}, err
	}
	if slotID < 1 || int(slotID) > len(t.slots) {
		return Record{}, fmt.Errorf("%w: %d", ErrSlotInvalid, slotID)
	}
	if rec.State == StateAssigned && rec.Slot == slotID {
		return *rec, nil
	}

	t.detach(rec)
	target := &t.slots[slotID-1]

	if target.occupant == uuid.Nil {
		rec.State = StateAssigned
		rec.Slot = slotID
		target.occupant = rec.ID
		return *rec, nil
	}

	occupant := t.records[target.occupant]
	merged := Merge(*occupant, *rec)
	merged.State = StateAssigned
	merged.Slot = slotID
	delete(t.records, occupant.ID)
	delete(t.records, rec.ID)
	t.records[merged.ID] = &merged
	target.occupant = merged.ID
	return merged, nil
}

// Quote computes what ClockOut would charge at now without changing anything.
func (t *Tracker) Quote(id uuid.UUID, now time.Time) (Receipt, error) {
	rec, err := t.active(id)
	if err != nil {
		return Receipt{}, err
	}
	return t.bill(rec, now)
}

// ClockOut bills the record up to now, frees its slot or queue entry and
// makes it terminal. A second call for the same id fails with ErrInvalidState.
func (t *Tracker) ClockOut(id uuid.UUID, now time.Time) (Receipt, error) {
	rec, err := t.active(id)
	if err != nil {
		return Receipt{}, err
	}
	receipt, err := t.bill(rec, now)
	if err != nil {
		return Receipt{}, err
	}

	t.detach(rec)
	rec.State = StateClockedOut
	rec.Slot = 0
	t.retire(rec.ID)
	return receipt, nil
}

// Snapshot returns copies of the slot grid and the queue in display order.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		Slots: make([]SlotView, len(t.slots)),
		Queue: make([]Record, 0, len(t.queue)),
	}
	for i, sl := range t.slots {
		view := SlotView{ID: SlotID(i + 1), Label: sl.label}
		if sl.occupant != uuid.Nil {
			occ := *t.records[sl.occupant]
			view.Occupant = &occ
		}
		s.Slots[i] = view
	}
	for _, id := range t.queue {
		s.Queue = append(s.Queue, *t.records[id])
	}
	return s
}

// SlotCount returns the number of slots in the venue layout.
func (t *Tracker) SlotCount() int {
	return len(t.slots)
}

// SlotLabel returns the label of a slot, or "" outside the layout.
func (t *Tracker) SlotLabel(id SlotID) string {
	if id < 1 || int(id) > len(t.slots) {
		return ""
	}
	return t.slots[id-1].label
}

func (t *Tracker) active(id uuid.UUID) (*Record, error) {
	rec, ok := t.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.State == StateClockedOut {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, id)
	}
	return rec, nil
}

func (t *Tracker) checkCounts(adults, students int) error {
	if err := t.checkCount("adults", adults); err != nil {
		return err
	}
	return t.checkCount("students", students)
}

// checkCount bounds a headcount given by the caller. Merged records may hold
// more than the maximum; only explicit input is checked.
func (t *Tracker) checkCount(what string, n int) error {
	if n < 0 || n > t.maxPerCategory {
		return fmt.Errorf("%w: %d %s, allowed 0-%d", ErrInvalidCount, n, what, t.maxPerCategory)
	}
	return nil
}

func (t *Tracker) bill(rec *Record, now time.Time) (Receipt, error) {
	if !now.After(rec.ArrivedAt) {
		return Receipt{}, fmt.Errorf("%w: clock-out %s is not after arrival %s",
			ErrInvalidInterval, now.Format(time.RFC3339), rec.ArrivedAt.Format(time.RFC3339))
	}
	b, err := t.tariff.Bill(rec.ArrivedAt, now, rec.Adults, rec.Students, t.perHead)
	if err != nil {
		return Receipt{}, fmt.Errorf("billing record %s: %w", rec.ID, err)
	}

	receipt := Receipt{
		RecordID:       rec.ID,
		Adults:         rec.Adults,
		Students:       rec.Students,
		Description:    rec.Description,
		Slot:           rec.Slot,
		ArrivedAt:      rec.ArrivedAt,
		ClockedOutAt:   now,
		AdultsCharge:   b.Adults,
		StudentsCharge: b.Students,
		Total:          b.Total,
		Duration:       b.Duration,
	}
	if rec.Slot != 0 {
		receipt.SlotLabel = t.slots[rec.Slot-1].label
	}
	return receipt, nil
}

// retire remembers a clocked-out record, forgetting the oldest past the
// retention limit.
func (t *Tracker) retire(id uuid.UUID) {
	t.closed = append(t.closed, id)
	if len(t.closed) > t.retain {
		delete(t.records, t.closed[0])
		t.closed = t.closed[1:]
	}
}

// detach removes the record from the queue or frees its slot.
func (t *Tracker) detach(rec *Record) {
	switch rec.State {
	case StateQueued:
		for i, id := range t.queue {
			if id == rec.ID {
				t.queue = append(t.queue[:i], t.queue[i+1:]...)
				break
			}
		}
	case StateAssigned:
		t.slots[rec.Slot-1].occupant = uuid.Nil
	}
}
