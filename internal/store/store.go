package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"table-tracking-backend/internal/model"
	"table-tracking-backend/internal/tracker"
)

// ErrNotFound is returned when a subscription does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all ledger operations.
type Store interface {
	SaveReceipt(ctx context.Context, r tracker.Receipt) error
	ListReceipts(ctx context.Context, from, to time.Time) ([]model.Receipt, error)
	Totals(ctx context.Context, from, to time.Time) (Totals, error)

	PutSubscription(ctx context.Context, sub model.PushSubscription, slots []int) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	SubscribersForSlot(ctx context.Context, slotID int) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// SaveReceipt archives the receipt of a finished visit.
func (s *gormStore) SaveReceipt(ctx context.Context, r tracker.Receipt) error {
	row := receiptRow(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to archive receipt for record %s: %w", r.RecordID, err)
	}
	return nil
}

// ListReceipts returns receipts clocked out in [from, to), oldest first.
// A zero bound is open.
func (s *gormStore) ListReceipts(ctx context.Context, from, to time.Time) ([]model.Receipt, error) {
	var receipts []model.Receipt
	if err := between(s.db.WithContext(ctx), from, to).
		Order("clocked_out_at ASC").
		Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, nil
}

// Totals sums the receipts clocked out in [from, to).
func (s *gormStore) Totals(ctx context.Context, from, to time.Time) (Totals, error) {
	var t Totals
	err := between(s.db.WithContext(ctx).Model(&model.Receipt{}), from, to).
		Select("COUNT(*) AS visits, " +
			"COALESCE(SUM(adults_cents), 0) AS adults_cents, " +
			"COALESCE(SUM(students_cents), 0) AS students_cents, " +
			"COALESCE(SUM(total_cents), 0) AS total_cents").
		Scan(&t).Error
	if err != nil {
		return Totals{}, fmt.Errorf("failed to aggregate receipts: %w", err)
	}
	return t, nil
}

// PutSubscription creates or replaces a subscription and the slots it watches.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription, slots []int) error {
	sub.Watches = nil
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SlotWatch{}).Error; err != nil {
			return fmt.Errorf("failed to clear watched slots: %w", err)
		}

		if len(slots) == 0 {
			return nil
		}
		watches := make([]model.SlotWatch, 0, len(slots))
		seen := make(map[int]bool, len(slots))
		for _, id := range slots {
			if seen[id] {
				continue
			}
			seen[id] = true
			watches = append(watches, model.SlotWatch{Endpoint: sub.Endpoint, SlotID: id})
		}
		if err := tx.Create(&watches).Error; err != nil {
			return fmt.Errorf("failed to store watched slots: %w", err)
		}
		return nil
	})
}

// DeleteSubscription removes a subscription and its watched slots.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SlotWatch{}).Error; err != nil {
			return fmt.Errorf("failed to delete watched slots: %w", err)
		}
		if err := tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// GetSubscription loads a subscription with its watched slots.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Watches").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: subscription %q", ErrNotFound, endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// SubscribersForSlot returns the subscriptions watching a slot.
func (s *gormStore) SubscribersForSlot(ctx context.Context, slotID int) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN slot_watches sw ON sw.endpoint = push_subscriptions.endpoint").
		Where("sw.slot_id = ?", slotID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for slot %d: %w", slotID, err)
	}
	return subs, nil
}

// --- Helper functions ---

func between(tx *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		tx = tx.Where("clocked_out_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		tx = tx.Where("clocked_out_at < ?", to.UTC())
	}
	return tx
}

func receiptRow(r tracker.Receipt) model.Receipt {
	return model.Receipt{
		RecordID:        r.RecordID.String(),
		Adults:          r.Adults,
		Students:        r.Students,
		Description:     r.Description,
		SlotID:          int(r.Slot),
		SlotLabel:       r.SlotLabel,
		ArrivedAt:       r.ArrivedAt.UTC(),
		ClockedOutAt:    r.ClockedOutAt.UTC(),
		AdultsCents:     int64(r.AdultsCharge),
		StudentsCents:   int64(r.StudentsCharge),
		TotalCents:      int64(r.Total),
		DurationSeconds: int64(r.Duration / time.Second),
	}
}
