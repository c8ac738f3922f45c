package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// CancelApplicationUseCase withdraws an application that has not reached a
// terminal status and has no offer yet.
type CancelApplicationUseCase struct {
	repo      port.ApplicationRepository
	schedules port.ScheduleRepository
	actors    port.ActorDirectory
	workflow  *service.Workflow
	clock     port.Clock
	logger    *slog.Logger
}

func NewCancelApplicationUseCase(
	repo port.ApplicationRepository,
	schedules port.ScheduleRepository,
	actors port.ActorDirectory,
	workflow *service.Workflow,
	clock port.Clock,
	logger *slog.Logger,
) *CancelApplicationUseCase {
	return &CancelApplicationUseCase{
		repo:      repo,
		schedules: schedules,
		actors:    actors,
		workflow:  workflow,
		clock:     clock,
		logger:    logger,
	}
}

func (uc *CancelApplicationUseCase) Execute(
	ctx context.Context,
	req dto.CancelApplicationRequest,
) (resp dto.ApplicationResponse, err error) {
	ctx, span := tracer.Start(ctx, "CancelApplication")
	defer func() { endSpan(span, err) }()

	var result service.Transition
	err = retryOnConflict(ctx, func() error {
		app, err := uc.repo.FindByID(ctx, req.ApplicationID)
		if err != nil {
			return fmt.Errorf("find application: %w", err)
		}
		actor, err := uc.actors.FindByEmail(ctx, req.ActorEmail)
		if err != nil {
			return fmt.Errorf("find actor: %w", err)
		}

		tr, err := uc.workflow.Cancel(app, actor, req.Reason, uc.clock.Now())
		if err != nil {
			return err
		}

		// An issued offer has a live schedule behind it.
		if _, err := uc.schedules.FindOffer(ctx, app.ID()); err == nil {
			return valueobject.InvalidState("application %s already has an offer", app.ApplicationNumber())
		} else if !errors.Is(err, valueobject.ErrNotFound) {
			return fmt.Errorf("find offer: %w", err)
		}

		if err := uc.repo.SaveTransition(ctx, tr.Application, tr.Entry); err != nil {
			return fmt.Errorf("save transition: %w", err)
		}
		result = tr
		return nil
	})
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	uc.logger.InfoContext(ctx, "application cancelled",
		"application_id", result.Application.ID(),
		"stage", result.Entry.Stage().String(),
		"actor_id", result.Entry.ActorID(),
	)
	return toApplicationResponse(result.Application), nil
}
