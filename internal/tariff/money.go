package tariff

import (
	"fmt"
	"math"
	"time"
)

// Cents is an amount of money in hundredths of the currency unit.
type Cents int64

// FromUnits converts a decimal amount such as 2.40 into Cents.
func FromUnits(units float64) Cents {
	return Cents(math.Round(units * 100))
}

// Units returns the amount as a decimal number of currency units.
func (c Cents) Units() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Breakdown is the charge of one visit split by patron category.
type Breakdown struct {
	Adults   Cents
	Students Cents
	Total    Cents
	Duration time.Duration
}

// Bill charges every nonzero category over [start, end) and sums the result.
// With perHead set each category charge is multiplied by its headcount.
func (t *Tariff) Bill(start, end time.Time, adults, students int, perHead bool) (Breakdown, error) {
	if !end.After(start) {
		return Breakdown{}, fmt.Errorf("%w: %s -> %s", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	b := Breakdown{Duration: end.Sub(start)}
	counts := map[Category]int{Adult: adults, Student: students}
	for _, c := range Categories {
		n := counts[c]
		if n == 0 {
			continue
		}
		charge, err := t.ComputeCharge(start, end, c)
		if err != nil {
			return Breakdown{}, err
		}
		if perHead {
			charge *= Cents(n)
		}
		switch c {
		case Adult:
			b.Adults = charge
		case Student:
			b.Students = charge
		}
	}
	b.Total = b.Adults + b.Students
	return b, nil
}

// MarshalJSON renders the amount as a decimal number with two places.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}
