package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// DefaultOverdueBatchSize is how many rows one sweep page loads.
const DefaultOverdueBatchSize = 500

// MarkOverdueUseCase flips every PENDING row due before today to OVERDUE.
// Running it again on the same day changes nothing.
type MarkOverdueUseCase struct {
	schedules port.ScheduleRepository
	clock     port.Clock
	batchSize int
	logger    *slog.Logger
}

func NewMarkOverdueUseCase(
	schedules port.ScheduleRepository,
	clock port.Clock,
	batchSize int,
	logger *slog.Logger,
) *MarkOverdueUseCase {
	if batchSize <= 0 {
		batchSize = DefaultOverdueBatchSize
	}
	return &MarkOverdueUseCase{
		schedules: schedules,
		clock:     clock,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Execute sweeps page by page. A row changed concurrently, typically by a
// payment, is skipped rather than retried: it is no longer PENDING.
func (uc *MarkOverdueUseCase) Execute(
	ctx context.Context,
	_ dto.MarkOverdueRequest,
) (resp dto.MarkOverdueResponse, err error) {
	ctx, span := tracer.Start(ctx, "MarkOverdue")
	defer func() { endSpan(span, err) }()

	now := uc.clock.Now()
	today := model.DateOf(now)
	resp.AsOf = today.Format(dateLayout)

	for {
		rows, err := uc.schedules.ListPendingDueBefore(ctx, today, uc.batchSize)
		if err != nil {
			return resp, fmt.Errorf("list pending rows: %w", err)
		}

		flipped := 0
		for _, row := range rows {
			next, changed := row.MarkOverdue(now)
			if !changed {
				resp.Skipped++
				continue
			}
			if err := uc.schedules.UpdateRow(ctx, next); err != nil {
				if errors.Is(err, valueobject.ErrConcurrentModification) {
					resp.Skipped++
					continue
				}
				return resp, fmt.Errorf("update schedule row %s: %w", row.ID(), err)
			}
			flipped++
		}
		resp.Flipped += flipped

		if len(rows) < uc.batchSize || flipped == 0 {
			break
		}
	}

	if resp.Flipped > 0 {
		overdueTotal.Add(ctx, int64(resp.Flipped))
	}
	uc.logger.InfoContext(ctx, "overdue sweep finished",
		"as_of", resp.AsOf, "flipped", resp.Flipped, "skipped", resp.Skipped)
	return resp, nil
}
