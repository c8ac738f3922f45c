package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/application/usecase"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/testutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scheduleRow(n int, due time.Time) model.EmiScheduleRow {
	return model.NewEmiScheduleRow("app-1", n, due,
		decimal.RequireFromString("8678.23"), decimal.RequireFromString("1594.90"),
		decimal.RequireFromString("7083.33"), decimal.NewFromInt(int64(1_000_000-1_600*n)))
}

func TestApplyPayment_Execute(t *testing.T) {
	ctx := context.Background()
	newUseCase := func(schedules *mockScheduleRepository) *usecase.ApplyPaymentUseCase {
		// TestEpoch is 2024-01-15
		return usecase.NewApplyPaymentUseCase(schedules, service.DefaultLedgerPolicy(),
			testutil.NewFixedClock(testutil.TestEpoch), discardLogger())
	}

	t.Run("on-time full payment settles the row", func(t *testing.T) {
		row := scheduleRow(1, day(2024, 1, 20))
		schedules := newMockScheduleRepository(nil)
		schedules.put(row)

		resp, err := newUseCase(schedules).Execute(ctx, dto.ApplyPaymentRequest{
			RowID: row.ID(), Amount: decimal.RequireFromString("8678.23"), Remarks: "NEFT",
		})
		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.Status)
		assert.Equal(t, "2024-01-15", resp.PaidDate)
		testutil.AssertDecimal(t, "0", resp.LateFee)
		testutil.AssertDecimal(t, "8678.23", resp.PaidAmount)
		assert.Len(t, schedules.row(row.ID()).DomainEvents(), 1)
	})

	t.Run("late partial payment records the fee and a second short payment stays partial", func(t *testing.T) {
		row := scheduleRow(1, day(2024, 1, 12))
		schedules := newMockScheduleRepository(nil)
		schedules.put(row)
		uc := newUseCase(schedules)

		resp, err := uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.NewFromInt(5_000)})
		require.NoError(t, err)
		assert.Equal(t, "PARTIAL_PAID", resp.Status)
		testutil.AssertDecimal(t, "300", resp.LateFee)

		resp, err = uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.NewFromInt(4_000)})
		require.NoError(t, err)
		assert.Equal(t, "PARTIAL_PAID", resp.Status)
		testutil.AssertDecimal(t, "4000", resp.PaidAmount)

		resp, err = uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.RequireFromString("8678.23")})
		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.Status)
		testutil.AssertDecimal(t, "8678.23", resp.PaidAmount)
	})

	t.Run("settled rows reject further payments", func(t *testing.T) {
		row := scheduleRow(1, day(2024, 1, 20))
		schedules := newMockScheduleRepository(nil)
		schedules.put(row)
		uc := newUseCase(schedules)

		_, err := uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.NewFromInt(9_000)})
		require.NoError(t, err)

		_, err = uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.NewFromInt(1)})
		assert.True(t, errors.Is(err, valueobject.ErrAlreadySettled))
		assert.True(t, errors.Is(err, valueobject.ErrInvalidInput))
	})

	t.Run("non-positive amounts and unknown rows", func(t *testing.T) {
		row := scheduleRow(1, day(2024, 1, 20))
		schedules := newMockScheduleRepository(nil)
		schedules.put(row)
		uc := newUseCase(schedules)

		_, err := uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.Zero})
		assert.True(t, errors.Is(err, valueobject.ErrInvalidInput))

		_, err = uc.Execute(ctx, dto.ApplyPaymentRequest{RowID: "missing", Amount: decimal.NewFromInt(1)})
		assert.True(t, errors.Is(err, valueobject.ErrNotFound))
	})

	t.Run("retries after a concurrent update", func(t *testing.T) {
		row := scheduleRow(1, day(2024, 1, 20))
		schedules := newMockScheduleRepository(nil)
		schedules.put(row)
		calls := 0
		schedules.updateRowFunc = func(context.Context, model.EmiScheduleRow) error {
			calls++
			if calls == 1 {
				return valueobject.ErrConcurrentModification
			}
			return nil
		}

		resp, err := newUseCase(schedules).Execute(ctx, dto.ApplyPaymentRequest{RowID: row.ID(), Amount: decimal.NewFromInt(100)})
		require.NoError(t, err)
		assert.Equal(t, "PARTIAL_PAID", resp.Status)
		assert.Equal(t, 2, calls)
	})
}

func TestMarkOverdue_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("flips pending rows due before today and is idempotent", func(t *testing.T) {
		schedules := newMockScheduleRepository(nil)
		past1 := scheduleRow(1, day(2023, 12, 15))
		past2 := scheduleRow(2, day(2024, 1, 14))
		today := scheduleRow(3, day(2024, 1, 15))
		future := scheduleRow(4, day(2024, 2, 15))
		schedules.put(past1, past2, today, future)

		uc := usecase.NewMarkOverdueUseCase(schedules, testutil.NewFixedClock(testutil.TestEpoch), 0, discardLogger())

		resp, err := uc.Execute(ctx, dto.MarkOverdueRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Flipped)
		assert.Equal(t, "2024-01-15", resp.AsOf)
		assert.Equal(t, "OVERDUE", schedules.row(past1.ID()).Status().String())
		assert.Equal(t, "OVERDUE", schedules.row(past2.ID()).Status().String())
		assert.Equal(t, "PENDING", schedules.row(today.ID()).Status().String())
		assert.Equal(t, "PENDING", schedules.row(future.ID()).Status().String())

		resp, err = uc.Execute(ctx, dto.MarkOverdueRequest{})
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Flipped)
	})

	t.Run("pages through more rows than one batch", func(t *testing.T) {
		schedules := newMockScheduleRepository(nil)
		for i := 1; i <= 5; i++ {
			schedules.put(scheduleRow(i, day(2023, time.Month(i), 10)))
		}
		uc := usecase.NewMarkOverdueUseCase(schedules, testutil.NewFixedClock(testutil.TestEpoch), 2, discardLogger())

		resp, err := uc.Execute(ctx, dto.MarkOverdueRequest{})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.Flipped)
	})

	t.Run("sweeps as of the clock and skips conflicts", func(t *testing.T) {
		schedules := newMockScheduleRepository(nil)
		a := scheduleRow(1, day(2024, 3, 1))
		b := scheduleRow(2, day(2024, 3, 2))
		schedules.put(a, b)
		schedules.updateRowFunc = func(_ context.Context, row model.EmiScheduleRow) error {
			if row.ID() == b.ID() {
				return valueobject.ErrConcurrentModification
			}
			return nil
		}
		clock := testutil.NewFixedClock(testutil.TestEpoch)
		uc := usecase.NewMarkOverdueUseCase(schedules, clock, 10, discardLogger())

		// nothing is due yet on 2024-01-15
		resp, err := uc.Execute(ctx, dto.MarkOverdueRequest{})
		require.NoError(t, err)
		assert.Zero(t, resp.Flipped)
		assert.Equal(t, "PENDING", schedules.row(a.ID()).Status().String())

		clock.Set(day(2024, 3, 10))
		resp, err = uc.Execute(ctx, dto.MarkOverdueRequest{})
		require.NoError(t, err)
		assert.Equal(t, "2024-03-10", resp.AsOf)
		assert.Equal(t, 1, resp.Flipped)
		assert.Equal(t, 1, resp.Skipped)
	})
}

func TestLedgerSummary_Execute(t *testing.T) {
	ctx := context.Background()
	schedules := newMockScheduleRepository(nil)
	first := scheduleRow(1, day(2023, 12, 15))
	second := scheduleRow(2, day(2024, 1, 10))
	third := scheduleRow(3, day(2024, 2, 15))
	paid, err := first.ApplyPayment(decimal.RequireFromString("8678.23"), "", day(2023, 12, 18), decimal.NewFromInt(100))
	require.NoError(t, err)
	schedules.put(paid, second, third)

	uc := usecase.NewLedgerSummaryUseCase(schedules, testutil.NewFixedClock(testutil.TestEpoch))

	resp, err := uc.Execute(ctx, dto.GetApplicationRequest{ApplicationID: "app-1"})
	require.NoError(t, err)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 1, resp.PaidCount)
	assert.Equal(t, 1, resp.OverdueCount)
	testutil.AssertDecimal(t, "17356.46", resp.Outstanding)
	testutil.AssertDecimal(t, "300", resp.LateFees)
	require.NotNil(t, resp.NextDue)
	assert.Equal(t, 2, resp.NextDue.EmiNumber)

	_, err = uc.Execute(ctx, dto.GetApplicationRequest{ApplicationID: "unknown"})
	assert.True(t, errors.Is(err, valueobject.ErrNotFound))
}
