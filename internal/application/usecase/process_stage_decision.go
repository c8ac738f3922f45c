package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ProcessStageDecisionUseCase applies an approve or reject decision at one
// stage of the approval pipeline.
type ProcessStageDecisionUseCase struct {
	repo     port.ApplicationRepository
	actors   port.ActorDirectory
	workflow *service.Workflow
	clock    port.Clock
	logger   *slog.Logger
}

// NewProcessStageDecisionUseCase wires dependencies.
func NewProcessStageDecisionUseCase(
	repo port.ApplicationRepository,
	actors port.ActorDirectory,
	workflow *service.Workflow,
	clock port.Clock,
	logger *slog.Logger,
) *ProcessStageDecisionUseCase {
	return &ProcessStageDecisionUseCase{
		repo:     repo,
		actors:   actors,
		workflow: workflow,
		clock:    clock,
		logger:   logger,
	}
}

// Execute validates the decision and writes the new status together with its
// history entry. A lost version race reloads and re-validates before retrying.
func (uc *ProcessStageDecisionUseCase) Execute(
	ctx context.Context,
	req dto.StageDecisionRequest,
) (resp dto.ApplicationResponse, err error) {
	ctx, span := tracer.Start(ctx, "ProcessStageDecision", trace.WithAttributes(
		attribute.String("application.id", req.ApplicationID),
		attribute.String("stage", req.Stage),
	))
	defer func() { endSpan(span, err) }()

	stage, err := valueobject.NewStage(req.Stage)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	var result service.Transition
	err = retryOnConflict(ctx, func() error {
		// 1. Load the application.
		app, err := uc.repo.FindByID(ctx, req.ApplicationID)
		if err != nil {
			return fmt.Errorf("find application: %w", err)
		}

		// 2. Resolve the actor.
		actor, err := uc.actors.FindByEmail(ctx, req.ActorEmail)
		if err != nil {
			return fmt.Errorf("find actor: %w", err)
		}

		// 3. Check role, status and decision; compute the transition.
		tr, err := uc.workflow.Decide(app, actor, stage, req.Decision, req.Remarks, uc.clock.Now())
		if err != nil {
			return err
		}

		// 4. Persist status and history atomically.
		if err := uc.repo.SaveTransition(ctx, tr.Application, tr.Entry); err != nil {
			if errors.Is(err, valueobject.ErrConcurrentModification) {
				uc.logger.WarnContext(ctx, "stage decision lost version race, retrying",
					"application_id", app.ID(), "stage", stage.String(), "version", app.Version())
			}
			return fmt.Errorf("save transition: %w", err)
		}
		result = tr
		return nil
	})
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	decisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage.String()),
		attribute.String("decision", result.Entry.Decision().String()),
	))
	uc.logger.InfoContext(ctx, "stage decision applied",
		"application_id", result.Application.ID(),
		"stage", stage.String(),
		"decision", result.Entry.Decision().String(),
		"status", result.Application.Status().String(),
		"actor_id", result.Entry.ActorID(),
	)
	return toApplicationResponse(result.Application), nil
}
