package tariff

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidInterval is returned when an interval does not end after it starts.
	ErrInvalidInterval = errors.New("interval end must be after its start")

	// ErrUnknownCategory is returned for a patron category other than adult or student.
	ErrUnknownCategory = errors.New("unknown patron category")

	// ErrInvalidTariff is returned when rates or day window boundaries are out of range.
	ErrInvalidTariff = errors.New("invalid tariff")
)

// Category is a patron category with its own day and night rates.
type Category string

const (
	Adult   Category = "adult"
	Student Category = "student"
)

// Categories lists the billable patron categories in receipt order.
var Categories = []Category{Adult, Student}

// roundingStep is the smallest billable amount, in cents.
const roundingStep = 5

// Rates holds the hourly rates of one category, in cents.
type Rates struct {
	Day   Cents `json:"day"`
	Night Cents `json:"night"`
}

// Tariff is the two-tier day/night price list. The day window is
// [OpenHour, CloseHour) in Location.
type Tariff struct {
	OpenHour  int                `json:"day_open_hour"`
	CloseHour int                `json:"day_close_hour"`
	Rates     map[Category]Rates `json:"rates"`
	Location  *time.Location     `json:"-"`
}

// New builds a Tariff and checks its boundaries and rates.
func New(openHour, closeHour int, rates map[Category]Rates, loc *time.Location) (*Tariff, error) {
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		return nil, fmt.Errorf("%w: day window %02d:00-%02d:00", ErrInvalidTariff, openHour, closeHour)
	}
	for _, c := range Categories {
		r, ok := rates[c]
		if !ok {
			return nil, fmt.Errorf("%w: no rates for %s", ErrInvalidTariff, c)
		}
		if r.Day < 0 || r.Night < 0 {
			return nil, fmt.Errorf("%w: negative rate for %s", ErrInvalidTariff, c)
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Tariff{
		OpenHour:  openHour,
		CloseHour: closeHour,
		Rates:     rates,
		Location:  loc,
	}, nil
}

// ComputeCharge bills one category over [start, end).
//
// An interval starting inside the day window is billed at the day rate up to
// that day's closing boundary and at the night rate afterwards. An interval
// starting outside the day window is billed entirely at the night rate. The
// result is rounded to the nearest 0.05 and never scales by headcount.
func (t *Tariff) ComputeCharge(start, end time.Time, c Category) (Cents, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("%w: %s -> %s", ErrInvalidInterval, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	r, ok := t.Rates[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}

	local := start.In(t.Location)
	var raw float64
	if t.inDay(local) {
		closing := t.boundary(local, t.CloseHour)
		if !end.After(closing) {
			raw = hours(end.Sub(start)) * float64(r.Day)
		} else {
			raw = hours(closing.Sub(start))*float64(r.Day) + hours(end.Sub(closing))*float64(r.Night)
		}
	} else {
		raw = hours(end.Sub(start)) * float64(r.Night)
	}

	return roundToStep(raw), nil
}

func (t *Tariff) inDay(local time.Time) bool {
	h := local.Hour()
	return h >= t.OpenHour && h < t.CloseHour
}

// boundary returns hour:00 on local's calendar date.
func (t *Tariff) boundary(local time.Time, hour int) time.Time {
	y, m, d := local.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, t.Location)
}

func hours(d time.Duration) float64 {
	return d.Seconds() / 3600
}

func roundToStep(cents float64) Cents {
	return Cents(math.RoundToEven(cents/roundingStep) * roundingStep)
}
