package tariff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceTariff(t *testing.T) *Tariff {
	t.Helper()
	tr, err := New(6, 18, map[Category]Rates{
		Adult:   {Day: FromUnits(2.40), Night: FromUnits(3.90)},
		Student: {Day: FromUnits(2.40), Night: FromUnits(3.00)},
	}, time.UTC)
	require.NoError(t, err)
	return tr
}

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 9, hour, minute, 0, 0, time.UTC)
}

func TestComputeCharge(t *testing.T) {
	tr := referenceTariff(t)

	testCases := []struct {
		name     string
		start    time.Time
		end      time.Time
		category Category
		expected Cents
	}{
		{
			name:     "Adult inside day window",
			start:    at(9, 0),
			end:      at(10, 0),
			category: Adult,
			expected: 240,
		},
		{
			name:     "Adult crossing the closing boundary",
			start:    at(17, 0),
			end:      at(19, 0),
			category: Adult,
			expected: 630,
		},
		{
			name:     "Student crossing the closing boundary",
			start:    at(17, 0),
			end:      at(19, 0),
			category: Student,
			expected: 540,
		},
		{
			name:     "Ends exactly at closing",
			start:    at(16, 0),
			end:      at(18, 0),
			category: Adult,
			expected: 480,
		},
		{
			name:     "Starts at night",
			start:    at(19, 0),
			end:      at(21, 0),
			category: Adult,
			expected: 780,
		},
		{
			name:     "Starts before opening is billed at night rate throughout",
			start:    at(5, 0),
			end:      at(7, 0),
			category: Student,
			expected: 600,
		},
		{
			name:     "Starts at opening hour",
			start:    at(6, 0),
			end:      at(6, 30),
			category: Adult,
			expected: 120,
		},
		{
			name:     "Rounds to nearest five cents",
			start:    at(9, 0),
			end:      at(9, 7),
			category: Adult,
			// 7/60 * 240 = 28 -> 30
			expected: 30,
		},
		{
			name:     "Longer than a day is billed in full",
			start:    at(20, 0),
			end:      at(20, 0).Add(25 * time.Hour),
			category: Student,
			expected: 7500,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			charge, err := tr.ComputeCharge(tc.start, tc.end, tc.category)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, charge)
		})
	}
}

func TestComputeCharge_Errors(t *testing.T) {
	tr := referenceTariff(t)

	_, err := tr.ComputeCharge(at(10, 0), at(10, 0), Adult)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = tr.ComputeCharge(at(10, 0), at(9, 0), Adult)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = tr.ComputeCharge(at(9, 0), at(10, 0), Category("senior"))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestComputeCharge_MultipleOfFiveCents(t *testing.T) {
	tr := referenceTariff(t)
	start := at(15, 13)
	for minutes := 1; minutes <= 12*60; minutes += 7 {
		for _, c := range Categories {
			charge, err := tr.ComputeCharge(start, start.Add(time.Duration(minutes)*time.Minute), c)
			require.NoError(t, err)
			assert.Zero(t, charge%5, "charge %s for %d minutes", charge, minutes)
		}
	}
}

func TestComputeCharge_Monotonic(t *testing.T) {
	tr := referenceTariff(t)
	for _, start := range []time.Time{at(4, 10), at(11, 45), at(17, 50), at(22, 5)} {
		for _, c := range Categories {
			var prev Cents
			for minutes := 1; minutes <= 30*60; minutes += 3 {
				charge, err := tr.ComputeCharge(start, start.Add(time.Duration(minutes)*time.Minute), c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, charge, prev)
				prev = charge
			}
		}
	}
}

func TestComputeCharge_UsesTariffLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	tr, err := New(6, 18, map[Category]Rates{
		Adult:   {Day: 240, Night: 390},
		Student: {Day: 240, Night: 300},
	}, loc)
	require.NoError(t, err)

	// 15:00 UTC is 17:00 local, so the split happens at 16:00 UTC.
	start := time.Date(2024, time.March, 9, 15, 0, 0, 0, time.UTC)
	charge, err := tr.ComputeCharge(start, start.Add(2*time.Hour), Adult)
	require.NoError(t, err)
	assert.Equal(t, Cents(630), charge)
}

func TestNew_Validation(t *testing.T) {
	rates := map[Category]Rates{Adult: {Day: 1, Night: 1}, Student: {Day: 1, Night: 1}}

	_, err := New(18, 6, rates, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTariff)

	_, err = New(6, 25, rates, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTariff)

	_, err = New(6, 18, map[Category]Rates{Adult: {Day: 1, Night: 1}}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTariff)

	_, err = New(6, 18, map[Category]Rates{Adult: {Day: -1, Night: 1}, Student: {Day: 1, Night: 1}}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTariff)

	tr, err := New(6, 18, rates, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, tr.Location)
}

func TestBill(t *testing.T) {
	tr := referenceTariff(t)

	t.Run("flat charge per nonzero category", func(t *testing.T) {
		b, err := tr.Bill(at(17, 0), at(19, 0), 3, 2, false)
		require.NoError(t, err)
		assert.Equal(t, Cents(630), b.Adults)
		assert.Equal(t, Cents(540), b.Students)
		assert.Equal(t, Cents(1170), b.Total)
		assert.Equal(t, 2*time.Hour, b.Duration)
	})

	t.Run("zero category is not billed", func(t *testing.T) {
		b, err := tr.Bill(at(9, 0), at(10, 0), 0, 1, false)
		require.NoError(t, err)
		assert.Zero(t, b.Adults)
		assert.Equal(t, Cents(240), b.Students)
		assert.Equal(t, Cents(240), b.Total)
	})

	t.Run("per head scales by count", func(t *testing.T) {
		b, err := tr.Bill(at(9, 0), at(10, 0), 2, 3, true)
		require.NoError(t, err)
		assert.Equal(t, Cents(480), b.Adults)
		assert.Equal(t, Cents(720), b.Students)
		assert.Equal(t, Cents(1200), b.Total)
	})

	t.Run("invalid interval", func(t *testing.T) {
		_, err := tr.Bill(at(10, 0), at(9, 0), 1, 0, false)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestCents_String(t *testing.T) {
	assert.Equal(t, "2.40", Cents(240).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-1.30", Cents(-130).String())
	assert.Equal(t, Cents(390), FromUnits(3.90))

	raw, err := Cents(1170).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "11.70", string(raw))
}
