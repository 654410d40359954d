package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"table-tracking-backend/internal/parse"
)

type receiptsResponse struct {
	From     time.Time         `json:"from"`
	To       time.Time         `json:"to"`
	Totals   totalsResponse    `json:"totals"`
	Receipts []receiptResponse `json:"receipts"`
}

// ListReceipts returns the archived receipts clocked out in [from, to).
// Both bounds accept a date or an RFC3339 timestamp; the default range is
// the current calendar day and a lone from spans one day.
func (h *Handler) ListReceipts(c *gin.Context) {
	from, to, err := h.receiptRange(c.Query("from"), c.Query("to"))
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	rows, err := h.store.ListReceipts(ctx, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	sums, err := h.store.Totals(ctx, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := receiptsResponse{
		From:     from.In(h.loc),
		To:       to.In(h.loc),
		Totals:   totals(sums),
		Receipts: make([]receiptResponse, len(rows)),
	}
	for i, r := range rows {
		resp.Receipts[i] = h.archivedReceipt(r)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) receiptRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if rawFrom == "" {
		y, m, d := h.now().In(h.loc).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, h.loc)
	} else if from, err = parse.ParseDay(rawFrom, h.loc); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if rawTo == "" {
		to = from.AddDate(0, 0, 1)
	} else if to, err = parse.ParseDay(rawTo, h.loc); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}
