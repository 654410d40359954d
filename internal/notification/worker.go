package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"table-tracking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the part of the ledger the workers need.
type Subscriptions interface {
	SubscribersForSlot(ctx context.Context, slotID int) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// SlotFreed announces that a slot has no occupant anymore.
type SlotFreed struct {
	SlotID int
	Label  string
}

// Message is the notification text for the freed slot.
func (j SlotFreed) Message() string {
	label := j.Label
	if label == "" {
		label = fmt.Sprintf("slot %d", j.SlotID)
	}
	return label + " is free"
}

// jobsPerWorker sizes the queue so a burst of clock-outs does not drop jobs.
const jobsPerWorker = 16

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan SlotFreed
	subs    Subscriptions
	webpush *webpush.Options
	sender  NotificationSender
	log     zerolog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs Subscriptions, webpushOptions *webpush.Options, log zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan SlotFreed, size*jobsPerWorker),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.With().Str("component", "notification").Logger(),
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.log.With().Int("worker", id).Logger()
	log.Debug().Msg("worker started")
	for {
		select {
		case job := <-wp.jobs:
			log.Debug().Int("slot_id", job.SlotID).Msg("processing slot")
			wp.notifySlot(ctx, job)
		case <-ctx.Done():
			log.Debug().Msg("worker shutting down")
			return
		}
	}
}

// Dispatch queues a job without blocking. It reports false when the queue
// is full and the job was dropped.
func (wp *WorkerPool) Dispatch(job SlotFreed) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		wp.log.Warn().Int("slot_id", job.SlotID).Msg("notification queue full, dropping job")
		return false
	}
}

// notifySlot fetches the subscriptions watching a slot and notifies each of them.
func (wp *WorkerPool) notifySlot(ctx context.Context, job SlotFreed) {
	subscriptions, err := wp.subs.SubscribersForSlot(ctx, job.SlotID)
	if err != nil {
		wp.log.Error().Err(err).Int("slot_id", job.SlotID).Msg("failed to fetch subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	wp.log.Info().Int("slot_id", job.SlotID).Int("count", len(subscriptions)).Msg("sending notifications")

	payload := []byte(job.Message())
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
