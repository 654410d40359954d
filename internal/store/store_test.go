package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"table-tracking-backend/internal/db"
	"table-tracking-backend/internal/model"
	"table-tracking-backend/internal/tariff"
	"table-tracking-backend/internal/tracker"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a private in-memory database with the schema migrated.
func newSQLiteDB(t *testing.T) *gorm.DB {
	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func receiptAt(clockOut time.Time, adults, students tariff.Cents) tracker.Receipt {
	return tracker.Receipt{
		RecordID:       uuid.New(),
		Adults:         2,
		Students:       1,
		Description:    "window booth",
		Slot:           3,
		SlotLabel:      "table 3",
		ArrivedAt:      clockOut.Add(-time.Hour),
		ClockedOutAt:   clockOut,
		AdultsCharge:   adults,
		StudentsCharge: students,
		Total:          adults + students,
		Duration:       time.Hour,
	}
}

func TestGormStore_SaveReceipt_Postgres(t *testing.T) {
	clockOut := time.Date(2024, time.March, 9, 20, 0, 0, 0, time.UTC)

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      bool
	}{
		{
			name: "Receipt is inserted",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "receipts"`)).
					WithArgs(Any{}, 2, 1, "window booth", 3, "table 3", Any{}, Any{}, int64(1000), int64(500), int64(1500), int64(3600), Any{}).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Insert fails",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "receipts"`)).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			s := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			err := s.SaveReceipt(context.Background(), receiptAt(clockOut, 1000, 500))
			if tc.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_SaveReceipt_MergedDescription(t *testing.T) {
	// Two merged parties each at the 512-character API limit.
	long := strings.Repeat("a", 512) + ", " + strings.Repeat("b", 512)

	t.Run("Postgres column is unbounded text", func(t *testing.T) {
		gormDB, _ := newMockDB(t)
		stmt := &gorm.Statement{DB: gormDB}
		require.NoError(t, stmt.Parse(&model.Receipt{}))

		field := stmt.Schema.LookUpField("Description")
		require.NotNil(t, field)
		assert.Equal(t, "text", gormDB.Dialector.DataTypeOf(field))
	})

	t.Run("Full description is archived", func(t *testing.T) {
		s := NewGormStore(newSQLiteDB(t))
		ctx := context.Background()
		clockOut := time.Date(2024, time.March, 9, 20, 0, 0, 0, time.UTC)

		r := receiptAt(clockOut, 1000, 500)
		r.Description = long
		require.NoError(t, s.SaveReceipt(ctx, r))

		receipts, err := s.ListReceipts(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		assert.Len(t, receipts[0].Description, 1026)
	})
}

func TestGormStore_ListReceiptsAndTotals(t *testing.T) {
	s := NewGormStore(newSQLiteDB(t))
	ctx := context.Background()
	day := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReceipt(ctx, receiptAt(day.Add(20*time.Hour), 1000, 500)))
	require.NoError(t, s.SaveReceipt(ctx, receiptAt(day.Add(14*time.Hour), 500, 200)))
	require.NoError(t, s.SaveReceipt(ctx, receiptAt(day.Add(30*time.Hour), 600, 300)))

	t.Run("Whole day, oldest first", func(t *testing.T) {
		receipts, err := s.ListReceipts(ctx, day, day.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, receipts, 2)
		assert.True(t, receipts[0].ClockedOutAt.Equal(day.Add(14*time.Hour)))
		assert.Equal(t, int64(700), receipts[0].TotalCents)
		assert.Equal(t, int64(1500), receipts[1].TotalCents)
		assert.Equal(t, "table 3", receipts[1].SlotLabel)
		assert.Equal(t, int64(3600), receipts[1].DurationSeconds)
	})

	t.Run("Open bounds", func(t *testing.T) {
		receipts, err := s.ListReceipts(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, receipts, 3)
	})

	t.Run("Totals", func(t *testing.T) {
		totals, err := s.Totals(ctx, day, day.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), totals.Visits)
		assert.Equal(t, int64(2200), totals.TotalCents)
		assert.Equal(t, int64(1500), totals.AdultsCents)
		assert.Equal(t, int64(700), totals.StudentsCents)
	})

	t.Run("Totals of an empty range", func(t *testing.T) {
		totals, err := s.Totals(ctx, day.Add(-48*time.Hour), day)
		require.NoError(t, err)
		assert.Equal(t, Totals{}, totals)
	})
}

func TestGormStore_Subscriptions(t *testing.T) {
	s := NewGormStore(newSQLiteDB(t))
	ctx := context.Background()

	sub := model.PushSubscription{Endpoint: "https://push.example/abc", P256DH: "key", Auth: "auth"}
	require.NoError(t, s.PutSubscription(ctx, sub, []int{2, 5, 5}))

	got, err := s.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "key", got.P256DH)
	require.Len(t, got.Watches, 2)

	subs, err := s.SubscribersForSlot(ctx, 5)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.Endpoint, subs[0].Endpoint)

	// Re-subscribing replaces keys and watched slots.
	sub.P256DH = "rotated"
	require.NoError(t, s.PutSubscription(ctx, sub, []int{7}))

	got, err = s.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.P256DH)
	require.Len(t, got.Watches, 1)
	assert.Equal(t, 7, got.Watches[0].SlotID)

	subs, err = s.SubscribersForSlot(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint))

	_, err = s.GetSubscription(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, ErrNotFound)

	subs, err = s.SubscribersForSlot(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
