package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	meridiemRe = regexp.MustCompile(`(?i)\s*([ap])\.?\s*m\.?$`)
)

// clockLayouts are tried in order after RFC3339 fails.
var clockLayouts = []string{
	"03:04 PM",
	"3:04 PM",
	"15:04",
	"15:04:05",
}

// ParseClockTime reads a timestamp typed by staff. Full RFC3339 timestamps are
// taken as is; a bare clock time such as "07:35 PM" or "19:35" resolves to that
// time on ref's calendar date in loc.
func ParseClockTime(raw string, ref time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}

	// Normalize "7:35pm", "7:35 p.m." and friends to "7:35 PM".
	s = spaceRe.ReplaceAllString(s, " ")
	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(s[:len(s)-len(m[0])]) + " " + strings.ToUpper(m[1]) + "M"
	}

	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, mo, d := ref.In(loc).Date()
		return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %q", raw)
}

// StepFive moves t to the next (dir > 0) or previous (dir < 0) five-minute
// mark. Off-grid times snap to the nearest mark in that direction; times on
// the grid move a full five minutes. Seconds are dropped.
func StepFive(t time.Time, dir int) time.Time {
	t = t.Truncate(time.Minute)
	rem := t.Minute() % 5
	switch {
	case dir > 0 && rem != 0:
		return t.Add(time.Duration(5-rem) * time.Minute)
	case dir > 0:
		return t.Add(5 * time.Minute)
	case dir < 0 && rem != 0:
		return t.Add(-time.Duration(rem) * time.Minute)
	case dir < 0:
		return t.Add(-5 * time.Minute)
	}
	return t
}

// ParseDay reads a calendar date ("2006-01-02") as midnight in loc, or a full
// RFC3339 timestamp as is.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %q", raw)
	}
	return t, nil
}
