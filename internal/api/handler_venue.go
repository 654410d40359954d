package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-tracking-backend/internal/tariff"
)

// GetSnapshot returns every slot with its occupant and the queue in arrival order.
func (h *Handler) GetSnapshot(c *gin.Context) {
	h.mu.Lock()
	snap := h.tracker.Snapshot()
	at := h.now()
	h.mu.Unlock()

	resp := snapshotResponse{
		Slots: make([]slotResponse, len(snap.Slots)),
		Queue: make([]partyResponse, len(snap.Queue)),
		At:    at.In(h.loc),
	}
	for i, s := range snap.Slots {
		resp.Slots[i] = slotResponse{ID: int(s.ID), Label: s.Label}
		if s.Occupant != nil {
			p := h.party(*s.Occupant)
			resp.Slots[i].Occupant = &p
		}
	}
	for i, rec := range snap.Queue {
		resp.Queue[i] = h.party(rec)
	}
	c.JSON(http.StatusOK, resp)
}

type tariffResponse struct {
	*tariff.Tariff
	Timezone string `json:"timezone"`
	PerHead  bool   `json:"per_head"`
}

// GetTariff returns the configured rates and day window.
func (h *Handler) GetTariff(c *gin.Context) {
	c.JSON(http.StatusOK, tariffResponse{
		Tariff:   h.tariff,
		Timezone: h.loc.String(),
		PerHead:  h.perHead,
	})
}
