package model

import "time"

// Receipt is the archived charge of one finished visit (cold table).
// Active queue and slot state is never persisted.
type Receipt struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	RecordID        string    `gorm:"size:36;uniqueIndex;not null"`
	Adults          int       `gorm:"not null"`
	Students        int       `gorm:"not null"`
	Description     string    `gorm:"type:text;not null"`
	SlotID          int       `gorm:"not null"` // 0 when clocked out from the queue
	SlotLabel       string    `gorm:"size:128;not null"`
	ArrivedAt       time.Time `gorm:"not null"`
	ClockedOutAt    time.Time `gorm:"not null;index"`
	AdultsCents     int64     `gorm:"not null"`
	StudentsCents   int64     `gorm:"not null"`
	TotalCents      int64     `gorm:"not null"`
	DurationSeconds int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
}
