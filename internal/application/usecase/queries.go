package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// GetApplication
// ---------------------------------------------------------------------------

type GetApplicationUseCase struct {
	repo port.ApplicationRepository
}

func NewGetApplicationUseCase(repo port.ApplicationRepository) *GetApplicationUseCase {
	return &GetApplicationUseCase{repo: repo}
}

// Execute accepts either the surrogate ID or the LA-number.
func (uc *GetApplicationUseCase) Execute(ctx context.Context, req dto.GetApplicationRequest) (dto.ApplicationResponse, error) {
	find := uc.repo.FindByID
	if isApplicationNumber(req.ApplicationID) {
		find = uc.repo.FindByNumber
	}
	app, err := find(ctx, req.ApplicationID)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("find application: %w", err)
	}
	return toApplicationResponse(app), nil
}

func isApplicationNumber(s string) bool {
	return len(s) == 8 && s[:2] == "LA"
}

// ---------------------------------------------------------------------------
// ListApplicationsByStatus
// ---------------------------------------------------------------------------

type ListApplicationsByStatusUseCase struct {
	repo port.ApplicationRepository
}

func NewListApplicationsByStatusUseCase(repo port.ApplicationRepository) *ListApplicationsByStatusUseCase {
	return &ListApplicationsByStatusUseCase{repo: repo}
}

// Execute returns applications in status, oldest first.
func (uc *ListApplicationsByStatusUseCase) Execute(
	ctx context.Context,
	req dto.ListApplicationsRequest,
) ([]dto.ApplicationResponse, error) {
	status, err := valueobject.NewApplicationStatus(req.Status)
	if err != nil {
		return nil, err
	}
	apps, err := uc.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]dto.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// GetHistory
// ---------------------------------------------------------------------------

type GetHistoryUseCase struct {
	repo port.ApplicationRepository
}

func NewGetHistoryUseCase(repo port.ApplicationRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{repo: repo}
}

// Execute returns the audit trail oldest first. Unknown applications are
// NotFound rather than an empty trail.
func (uc *GetHistoryUseCase) Execute(ctx context.Context, req dto.GetApplicationRequest) (dto.HistoryResponse, error) {
	app, err := uc.repo.FindByID(ctx, req.ApplicationID)
	if err != nil {
		return dto.HistoryResponse{}, fmt.Errorf("find application: %w", err)
	}
	entries, err := uc.repo.ListHistory(ctx, app.ID())
	if err != nil {
		return dto.HistoryResponse{}, fmt.Errorf("list history: %w", err)
	}

	resp := dto.HistoryResponse{
		ApplicationID: app.ID(),
		Entries:       make([]dto.HistoryEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toHistoryEntryResponse(e))
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// GetSchedule
// ---------------------------------------------------------------------------

type GetScheduleUseCase struct {
	schedules port.ScheduleRepository
}

func NewGetScheduleUseCase(schedules port.ScheduleRepository) *GetScheduleUseCase {
	return &GetScheduleUseCase{schedules: schedules}
}

func (uc *GetScheduleUseCase) Execute(ctx context.Context, req dto.GetApplicationRequest) (dto.ScheduleResponse, error) {
	offer, err := uc.schedules.FindOffer(ctx, req.ApplicationID)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("find offer: %w", err)
	}
	rows, err := uc.schedules.ListRows(ctx, req.ApplicationID)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("list schedule rows: %w", err)
	}
	return dto.ScheduleResponse{
		Offer: toOfferResponse(offer),
		Rows:  toRowResponses(rows),
	}, nil
}
