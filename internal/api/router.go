package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"table-tracking-backend/internal/logging"
	"table-tracking-backend/internal/mw"
)

// RouterConfig holds the HTTP middleware settings.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(log))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Cached views are flushed by every successful mutation.
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		api.POST("/parties", h.CreateParty)
		api.GET("/parties/:id", h.GetParty)
		api.PATCH("/parties/:id", h.EditParty)
		api.POST("/parties/:id/assign", h.AssignParty)
		api.GET("/parties/:id/quote", h.QuotePartyCharge)
		api.POST("/parties/:id/clock-out", h.ClockOutParty)

		api.GET("/snapshot", h.GetSnapshot)
		api.GET("/tariff", caching, h.GetTariff)
		api.GET("/receipts", caching, h.ListReceipts)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
