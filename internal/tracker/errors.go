package tracker

import (
	"errors"
	"fmt"

	"table-tracking-backend/internal/tariff"
)

var (
	// ErrNotFound is returned for an unknown record id, including ids consumed by a merge.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidState is returned when the record has already been clocked out.
	ErrInvalidState = errors.New("record is clocked out")

	// ErrSlotInvalid is returned for a slot id outside the venue layout.
	ErrSlotInvalid = errors.New("slot is outside the venue layout")

	// ErrInvalidCount is returned for a negative or over-maximum headcount.
	ErrInvalidCount = errors.New("headcount out of range")

	// ErrInvalidInterval is returned when a clock-out is at or before arrival,
	// or an arrival lies in the future. It matches tariff.ErrInvalidInterval.
	ErrInvalidInterval = fmt.Errorf("invalid interval: %w", tariff.ErrInvalidInterval)
)
