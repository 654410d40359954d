package api

import (
	"time"

	"github.com/google/uuid"

	"table-tracking-backend/internal/model"
	"table-tracking-backend/internal/store"
	"table-tracking-backend/internal/tariff"
	"table-tracking-backend/internal/tracker"
)

type partyResponse struct {
	ID          uuid.UUID     `json:"id"`
	Adults      int           `json:"adults"`
	Students    int           `json:"students"`
	Description string        `json:"description"`
	ArrivedAt   time.Time     `json:"arrived_at"`
	State       tracker.State `json:"state"`
	SlotID      int           `json:"slot_id,omitempty"`
	SlotLabel   string        `json:"slot_label,omitempty"`
	// Merged is set when an assignment combined two parties under a new id.
	Merged bool `json:"merged,omitempty"`
}

func (h *Handler) party(rec tracker.Record) partyResponse {
	return partyResponse{
		ID:          rec.ID,
		Adults:      rec.Adults,
		Students:    rec.Students,
		Description: rec.Description,
		ArrivedAt:   rec.ArrivedAt.In(h.loc),
		State:       rec.State,
		SlotID:      int(rec.Slot),
		SlotLabel:   h.tracker.SlotLabel(rec.Slot),
	}
}

type receiptResponse struct {
	RecordID        string       `json:"record_id"`
	Adults          int          `json:"adults"`
	Students        int          `json:"students"`
	Description     string       `json:"description"`
	SlotID          int          `json:"slot_id,omitempty"`
	SlotLabel       string       `json:"slot_label,omitempty"`
	ArrivedAt       time.Time    `json:"arrived_at"`
	ClockedOutAt    time.Time    `json:"clocked_out_at"`
	AdultsCharge    tariff.Cents `json:"adults_charge"`
	StudentsCharge  tariff.Cents `json:"students_charge"`
	Total           tariff.Cents `json:"total"`
	DurationMinutes int64        `json:"duration_minutes"`
	// Archived is only reported on clock-out.
	Archived *bool `json:"archived,omitempty"`
}

func (h *Handler) receipt(r tracker.Receipt) receiptResponse {
	return receiptResponse{
		RecordID:        r.RecordID.String(),
		Adults:          r.Adults,
		Students:        r.Students,
		Description:     r.Description,
		SlotID:          int(r.Slot),
		SlotLabel:       r.SlotLabel,
		ArrivedAt:       r.ArrivedAt.In(h.loc),
		ClockedOutAt:    r.ClockedOutAt.In(h.loc),
		AdultsCharge:    r.AdultsCharge,
		StudentsCharge:  r.StudentsCharge,
		Total:           r.Total,
		DurationMinutes: int64(r.Duration / time.Minute),
	}
}

func (h *Handler) archivedReceipt(r model.Receipt) receiptResponse {
	return receiptResponse{
		RecordID:        r.RecordID,
		Adults:          r.Adults,
		Students:        r.Students,
		Description:     r.Description,
		SlotID:          r.SlotID,
		SlotLabel:       r.SlotLabel,
		ArrivedAt:       r.ArrivedAt.In(h.loc),
		ClockedOutAt:    r.ClockedOutAt.In(h.loc),
		AdultsCharge:    tariff.Cents(r.AdultsCents),
		StudentsCharge:  tariff.Cents(r.StudentsCents),
		Total:           tariff.Cents(r.TotalCents),
		DurationMinutes: r.DurationSeconds / 60,
	}
}

type slotResponse struct {
	ID       int            `json:"id"`
	Label    string         `json:"label"`
	Occupant *partyResponse `json:"occupant"`
}

type snapshotResponse struct {
	Slots []slotResponse  `json:"slots"`
	Queue []partyResponse `json:"queue"`
	At    time.Time       `json:"at"`
}

type totalsResponse struct {
	Visits   int64        `json:"visits"`
	Adults   tariff.Cents `json:"adults"`
	Students tariff.Cents `json:"students"`
	Total    tariff.Cents `json:"total"`
}

func totals(t store.Totals) totalsResponse {
	return totalsResponse{
		Visits:   t.Visits,
		Adults:   tariff.Cents(t.AdultsCents),
		Students: tariff.Cents(t.StudentsCents),
		Total:    tariff.Cents(t.TotalCents),
	}
}
