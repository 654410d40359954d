package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"table-tracking-backend/internal/parse"
	"table-tracking-backend/internal/tracker"
)

type createPartyRequest struct {
	Adults      int    `json:"adults"`
	Students    int    `json:"students"`
	Description string `json:"description" binding:"max=512"`
	// ArrivedAt is RFC3339 or a clock time such as "07:35 PM"; empty means now.
	ArrivedAt string `json:"arrived_at"`
}

// CreateParty queues a new party.
func (h *Handler) CreateParty(c *gin.Context) {
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var arrivedAt *time.Time
	if req.ArrivedAt != "" {
		t, err := parse.ParseClockTime(req.ArrivedAt, h.now(), h.loc)
		if err != nil {
			badRequest(c, err)
			return
		}
		arrivedAt = &t
	}

	rec, err := h.tracker.Create(req.Adults, req.Students, req.Description, arrivedAt)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().Str("party_id", rec.ID.String()).Int("adults", rec.Adults).Int("students", rec.Students).Msg("party queued")
	c.JSON(http.StatusCreated, h.party(rec))
}

// GetParty returns one party. Clocked-out parties stay readable.
func (h *Handler) GetParty(c *gin.Context) {
	id, ok := partyID(c)
	if !ok {
		return
	}

	h.mu.Lock()
	rec, err := h.tracker.Get(id)
	h.mu.Unlock()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.party(rec))
}

type editPartyRequest struct {
	Adults      *int    `json:"adults"`
	Students    *int    `json:"students"`
	Description *string `json:"description" binding:"omitempty,max=512"`
	ArrivedAt   *string `json:"arrived_at"`
	// ArrivedStep moves the arrival to the next (1) or previous (-1) five-minute mark.
	ArrivedStep int `json:"arrived_step" binding:"oneof=-1 0 1"`
}

// EditParty patches a queued or seated party.
func (h *Handler) EditParty(c *gin.Context) {
	id, ok := partyID(c)
	if !ok {
		return
	}
	var req editPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	patch := tracker.Patch{
		Adults:      req.Adults,
		Students:    req.Students,
		Description: req.Description,
	}
	if req.ArrivedAt != nil {
		t, err := parse.ParseClockTime(*req.ArrivedAt, h.now(), h.loc)
		if err != nil {
			badRequest(c, err)
			return
		}
		patch.ArrivedAt = &t
	}
	if req.ArrivedStep != 0 {
		base := patch.ArrivedAt
		if base == nil {
			current, err := h.tracker.Get(id)
			if err != nil {
				h.fail(c, err)
				return
			}
			base = &current.ArrivedAt
		}
		stepped := parse.StepFive(base.In(h.loc), req.ArrivedStep)
		patch.ArrivedAt = &stepped
	}

	rec, err := h.tracker.Edit(id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.party(rec))
}

type assignRequest struct {
	SlotID int `json:"slot_id"`
}

// AssignParty seats a party, merging it with the current occupant if the
// slot is taken.
func (h *Handler) AssignParty(c *gin.Context) {
	id, ok := partyID(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	before, err := h.tracker.Get(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.tracker.Assign(id, tracker.SlotID(req.SlotID))
	if err != nil {
		h.fail(c, err)
		return
	}

	if before.State == tracker.StateAssigned && before.Slot != rec.Slot {
		h.notifyFreed(before.Slot)
	}

	resp := h.party(rec)
	resp.Merged = rec.ID != id
	if resp.Merged {
		h.log.Info().Str("party_id", id.String()).Str("merged_id", rec.ID.String()).Int("slot_id", req.SlotID).Msg("parties merged")
	}
	c.JSON(http.StatusOK, resp)
}

// QuotePartyCharge returns the running charge without clocking the party out.
func (h *Handler) QuotePartyCharge(c *gin.Context) {
	id, ok := partyID(c)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	at, err := h.timeParam(c.Query("at"))
	if err != nil {
		badRequest(c, err)
		return
	}
	receipt, err := h.tracker.Quote(id, at)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.receipt(receipt))
}

type clockOutRequest struct {
	// At is RFC3339 or a clock time; empty means now.
	At string `json:"at"`
}

// ClockOutParty bills a party, frees its slot and archives the receipt.
func (h *Handler) ClockOutParty(c *gin.Context) {
	id, ok := partyID(c)
	if !ok {
		return
	}
	var req clockOutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	h.mu.Lock()
	at, err := h.timeParam(req.At)
	if err != nil {
		h.mu.Unlock()
		badRequest(c, err)
		return
	}
	if at.After(h.now()) {
		h.mu.Unlock()
		h.fail(c, fmt.Errorf("%w: clock-out %s is in the future", tracker.ErrInvalidInterval, at.Format(time.RFC3339)))
		return
	}
	receipt, err := h.tracker.ClockOut(id, at)
	h.mu.Unlock()
	if err != nil {
		h.fail(c, err)
		return
	}

	log := h.log.With().Str("party_id", receipt.RecordID.String()).Logger()
	log.Info().Str("total", receipt.Total.String()).Int("slot_id", int(receipt.Slot)).Msg("party clocked out")

	resp := h.receipt(receipt)
	archived := true
	if err := h.store.SaveReceipt(c.Request.Context(), receipt); err != nil {
		// The clock-out already happened; report it and keep the receipt.
		log.Error().Err(err).Msg("failed to archive receipt")
		archived = false
	}
	resp.Archived = &archived

	h.notifyFreed(receipt.Slot)
	c.JSON(http.StatusOK, resp)
}

// timeParam resolves an optional time parameter against now. Callers hold mu.
func (h *Handler) timeParam(raw string) (time.Time, error) {
	now := h.now()
	if raw == "" {
		return now, nil
	}
	return parse.ParseClockTime(raw, now, h.loc)
}
