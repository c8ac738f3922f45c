package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// GenerateOfferScheduleUseCase issues the loan offer and its EMI schedule for
// an approved application. It runs once per application.
type GenerateOfferScheduleUseCase struct {
	apps      port.ApplicationRepository
	schedules port.ScheduleRepository
	actors    port.ActorDirectory
	workflow  *service.Workflow
	engine    *service.AmortizationEngine
	policy    service.OfferPolicy
	numbers   port.NumberGenerator
	clock     port.Clock
	logger    *slog.Logger
}

// NewGenerateOfferScheduleUseCase wires dependencies.
func NewGenerateOfferScheduleUseCase(
	apps port.ApplicationRepository,
	schedules port.ScheduleRepository,
	actors port.ActorDirectory,
	workflow *service.Workflow,
	engine *service.AmortizationEngine,
	policy service.OfferPolicy,
	numbers port.NumberGenerator,
	clock port.Clock,
	logger *slog.Logger,
) *GenerateOfferScheduleUseCase {
	return &GenerateOfferScheduleUseCase{
		apps:      apps,
		schedules: schedules,
		actors:    actors,
		workflow:  workflow,
		engine:    engine,
		policy:    policy,
		numbers:   numbers,
		clock:     clock,
		logger:    logger,
	}
}

// Execute computes the EMI, expands the schedule and writes offer, rows and
// application change in one transaction. From PENDING_L3 the same write also
// records the L3 approval.
func (uc *GenerateOfferScheduleUseCase) Execute(
	ctx context.Context,
	req dto.GenerateOfferRequest,
) (resp dto.ScheduleResponse, err error) {
	ctx, span := tracer.Start(ctx, "GenerateOfferSchedule", trace.WithAttributes(
		attribute.String("application.id", req.ApplicationID),
	))
	defer func() { endSpan(span, err) }()

	if req.InterestRate.IsNegative() {
		return dto.ScheduleResponse{}, valueobject.InvalidInput("interest rate cannot be negative")
	}

	var result port.OfferIssue
	err = retryOnConflict(ctx, func() error {
		now := uc.clock.Now()

		// 1. Load the application and the issuer.
		app, err := uc.apps.FindByID(ctx, req.ApplicationID)
		if err != nil {
			return fmt.Errorf("find application: %w", err)
		}
		actor, err := uc.actors.FindByEmail(ctx, req.ActorEmail)
		if err != nil {
			return fmt.Errorf("find actor: %w", err)
		}

		// 2. Check issuer role and application status.
		if !actor.HasRole(uc.policy.IssuerRole) {
			return valueobject.Unauthorized("user not authorized to generate offers: requires %s", uc.policy.IssuerRole)
		}
		if !uc.policy.CanIssue(app.Status()) {
			return valueobject.InvalidState("application %s is %s, offers require an approved application",
				app.ApplicationNumber(), app.Status())
		}

		// 3. One offer and schedule per application.
		if _, err := uc.schedules.FindOffer(ctx, app.ID()); err == nil {
			return fmt.Errorf("application %s: %w", app.ApplicationNumber(), valueobject.ErrScheduleExists)
		} else if !errors.Is(err, valueobject.ErrNotFound) {
			return fmt.Errorf("find offer: %w", err)
		}

		// 4. Resolve terms and build the schedule.
		amount, years, err := offerTerms(app, req)
		if err != nil {
			return err
		}
		emi, err := uc.engine.ComputeInstallment(amount, req.InterestRate, years)
		if err != nil {
			return err
		}
		rows, err := uc.engine.GenerateSchedule(app.ID(), amount, req.InterestRate, years, emi, now)
		if err != nil {
			return err
		}
		fee := uc.policy.ProcessingFee(amount)
		terms := uc.policy.Terms(app, amount, req.InterestRate, emi, fee, years)

		// 5. Record the L3 approval, or bump the version to serialise with
		// concurrent decisions.
		issue := port.OfferIssue{Rows: rows}
		if app.Status().Equal(valueobject.StatusPendingL3) {
			tr, err := uc.workflow.Decide(app, actor, valueobject.StageL3,
				valueobject.ActionApprove.String(), "approved on offer issuance", now)
			if err != nil {
				return err
			}
			issue.Application = tr.Application
			issue.Entry = &tr.Entry
		} else {
			issue.Application = app.Touch(now)
		}
		base := issue.Application

		// 6. Persist, drawing a fresh letter number if the one issued is taken.
		for attempt := 1; ; attempt++ {
			offer, issued, err := model.NewLoanOffer(
				app.ID(), uc.numbers.OfferLetterNumber(), amount, req.InterestRate,
				years, emi, fee, terms, actor, now,
			)
			if err != nil {
				return fmt.Errorf("create offer: %w", err)
			}
			issue.Offer = offer
			issue.Application = base.RecordEvent(issued)

			err = uc.schedules.SaveOffer(ctx, issue)
			if err == nil {
				break
			}
			if !errors.Is(err, valueobject.ErrDuplicateNumber) || attempt == maxNumberAttempts {
				return fmt.Errorf("save offer: %w", err)
			}
		}
		result = issue
		return nil
	})
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	offersTotal.Add(ctx, 1)
	uc.logger.InfoContext(ctx, "offer issued",
		"application_id", result.Application.ID(),
		"offer_letter_number", result.Offer.OfferLetterNumber(),
		"emi", result.Offer.EmiAmount().String(),
		"installments", len(result.Rows),
		"status", result.Application.Status().String(),
	)
	return dto.ScheduleResponse{
		ApplicationStatus: result.Application.Status().String(),
		Offer:             toOfferResponse(result.Offer),
		Rows:              toRowResponses(result.Rows),
	}, nil
}

// offerTerms defaults amount and tenure to the application's and bounds them
// by the request and the product limits.
func offerTerms(app model.LoanApplication, req dto.GenerateOfferRequest) (amount decimal.Decimal, years int, err error) {
	amount, years = req.ApprovedAmount, req.TenureYears
	if amount.IsZero() {
		amount = app.LoanAmount()
	}
	if years == 0 {
		years = app.TenureYears()
	}
	if !amount.IsPositive() || amount.GreaterThan(app.LoanAmount()) {
		return decimal.Zero, 0, valueobject.InvalidInput(
			"approved amount must be positive and at most the requested %s", app.LoanAmount())
	}
	if years < model.MinTenureYears || years > model.MaxTenureYears {
		return decimal.Zero, 0, valueobject.InvalidInput(
			"tenure must be between %d and %d years", model.MinTenureYears, model.MaxTenureYears)
	}
	return amount, years, nil
}
