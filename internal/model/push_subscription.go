package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Watches []SlotWatch `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SlotWatch subscribes an endpoint to "slot is free" notifications for one slot.
type SlotWatch struct {
	Endpoint string `gorm:"primaryKey"`
	SlotID   int    `gorm:"primaryKey;autoIncrement:false"`
}
