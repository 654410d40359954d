package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"table-tracking-backend/internal/notification"
	"table-tracking-backend/internal/store"
	"table-tracking-backend/internal/tariff"
	"table-tracking-backend/internal/tracker"
)

// Notifier queues slot-freed notifications. Dispatch must not block.
type Notifier interface {
	Dispatch(job notification.SlotFreed) bool
}

// Options holds the dependencies of a Handler.
type Options struct {
	Tracker  *tracker.Tracker
	Store    store.Store
	Tariff   *tariff.Tariff
	PerHead  bool
	Location *time.Location
	Clock    func() time.Time
	// Notifier is nil when push notifications are disabled.
	Notifier Notifier
	WebPush  *webpush.Options
	Log      zerolog.Logger
}

// Handler holds shared dependencies for API handlers. It is the single
// command dispatcher of the tracker: mu serializes every tracker call.
type Handler struct {
	mu       sync.Mutex
	tracker  *tracker.Tracker
	store    store.Store
	tariff   *tariff.Tariff
	perHead  bool
	loc      *time.Location
	now      func() time.Time
	notifier Notifier
	webpush  *webpush.Options
	log      zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Handler{
		tracker:  opts.Tracker,
		store:    opts.Store,
		tariff:   opts.Tariff,
		perHead:  opts.PerHead,
		loc:      loc,
		now:      clock,
		notifier: opts.Notifier,
		webpush:  opts.WebPush,
		log:      opts.Log,
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, tracker.ErrSlotInvalid),
		errors.Is(err, tracker.ErrInvalidCount),
		errors.Is(err, tariff.ErrInvalidInterval):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response for err.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest rejects malformed input.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
}

// partyID reads the :id path parameter.
func partyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid party id"})
		return uuid.Nil, false
	}
	return id, true
}

// notifyFreed queues a slot-freed notification when push is enabled.
func (h *Handler) notifyFreed(slot tracker.SlotID) {
	if h.notifier == nil || slot == 0 {
		return
	}
	h.notifier.Dispatch(notification.SlotFreed{
		SlotID: int(slot),
		Label:  h.tracker.SlotLabel(slot),
	})
}
