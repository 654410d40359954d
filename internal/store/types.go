package store

// Totals aggregates archived receipts over a period.
type Totals struct {
	Visits        int64 `json:"visits"`
	AdultsCents   int64 `json:"adults_cents"`
	StudentsCents int64 `json:"students_cents"`
	TotalCents    int64 `json:"total_cents"`
}
