package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/money"
)

// LedgerSummaryUseCase reports on the servicing state of a schedule.
type LedgerSummaryUseCase struct {
	schedules port.ScheduleRepository
	clock     port.Clock
}

func NewLedgerSummaryUseCase(schedules port.ScheduleRepository, clock port.Clock) *LedgerSummaryUseCase {
	return &LedgerSummaryUseCase{schedules: schedules, clock: clock}
}

func (uc *LedgerSummaryUseCase) Execute(
	ctx context.Context,
	req dto.GetApplicationRequest,
) (dto.LedgerSummaryResponse, error) {
	rows, err := uc.schedules.ListRows(ctx, req.ApplicationID)
	if err != nil {
		return dto.LedgerSummaryResponse{}, fmt.Errorf("list schedule rows: %w", err)
	}
	if len(rows) == 0 {
		return dto.LedgerSummaryResponse{}, valueobject.NotFound("schedule for application %s", req.ApplicationID)
	}

	s, err := service.Summarize(rows, uc.clock.Now(), money.INR)
	if err != nil {
		return dto.LedgerSummaryResponse{}, fmt.Errorf("summarize schedule: %w", err)
	}
	resp := dto.LedgerSummaryResponse{
		ApplicationID: req.ApplicationID,
		Currency:      s.Outstanding.Currency().Code(),
		Outstanding:   s.Outstanding.Amount(),
		PaidAmount:    s.PaidAmount.Amount(),
		LateFees:      s.LateFees.Amount(),
		PaidCount:     s.PaidCount,
		OverdueCount:  s.OverdueCount,
		TotalCount:    s.TotalCount,
	}
	if s.NextDue != nil {
		next := toRowResponse(*s.NextDue)
		resp.NextDue = &next
	}
	return resp, nil
}
