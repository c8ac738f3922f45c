package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// SubmitApplicationUseCase validates a new application, scores it and files
// it for underwriting.
type SubmitApplicationUseCase struct {
	repo    port.ApplicationRepository
	numbers port.NumberGenerator
	scorer  *service.EligibilityScorer
	clock   port.Clock
	logger  *slog.Logger
}

// NewSubmitApplicationUseCase wires dependencies.
func NewSubmitApplicationUseCase(
	repo port.ApplicationRepository,
	numbers port.NumberGenerator,
	scorer *service.EligibilityScorer,
	clock port.Clock,
	logger *slog.Logger,
) *SubmitApplicationUseCase {
	return &SubmitApplicationUseCase{
		repo:    repo,
		numbers: numbers,
		scorer:  scorer,
		clock:   clock,
		logger:  logger,
	}
}

// Execute creates the application at PENDING_RCPU.
func (uc *SubmitApplicationUseCase) Execute(
	ctx context.Context,
	req dto.SubmitApplicationRequest,
) (resp dto.ApplicationResponse, err error) {
	ctx, span := tracer.Start(ctx, "SubmitApplication")
	defer func() { endSpan(span, err) }()

	now := uc.clock.Now()

	// 1. Parse and validate the applicant.
	applicant, err := toApplicant(req)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	// 2. Score eligibility and estimate the installment.
	score := uc.scorer.Score(applicant)
	estimate := uc.scorer.EstimateEmi(applicant.LoanAmount, applicant.TenureYears)

	// 3. Create the aggregate.
	app, err := model.NewLoanApplication(uc.numbers.ApplicationNumber(), applicant, score, estimate, now)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("create application: %w", err)
	}

	// 4. Persist, drawing a fresh number if the one issued is taken.
	for attempt := 1; ; attempt++ {
		err = uc.repo.Create(ctx, app)
		if !errors.Is(err, valueobject.ErrDuplicateNumber) || attempt == maxNumberAttempts {
			break
		}
		app = app.WithApplicationNumber(uc.numbers.ApplicationNumber())
	}
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("save application: %w", err)
	}

	submissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", applicant.Purpose.String())))
	uc.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID(),
		"application_number", app.ApplicationNumber(),
		"pan", applicant.PAN.Masked(),
		"loan_amount", applicant.LoanAmount.String(),
		"eligibility_score", score,
	)
	return toApplicationResponse(app), nil
}

func toApplicant(req dto.SubmitApplicationRequest) (model.Applicant, error) {
	pan, err := valueobject.NewPAN(req.PAN)
	if err != nil {
		return model.Applicant{}, err
	}
	aadhaar, err := valueobject.NewAadhaar(req.Aadhaar)
	if err != nil {
		return model.Applicant{}, err
	}
	employment, err := valueobject.NewEmploymentType(req.EmploymentType)
	if err != nil {
		return model.Applicant{}, err
	}
	purpose, err := valueobject.NewLoanPurpose(req.Purpose)
	if err != nil {
		return model.Applicant{}, err
	}

	a := model.Applicant{
		FullName:            strings.TrimSpace(req.FullName),
		PAN:                 pan,
		Aadhaar:             aadhaar,
		Email:               strings.TrimSpace(req.Email),
		Phone:               strings.TrimSpace(req.Phone),
		Address:             req.Address,
		City:                req.City,
		State:               req.State,
		Pincode:             strings.TrimSpace(req.Pincode),
		EmploymentType:      employment,
		EmployerName:        req.EmployerName,
		MonthlyIncome:       req.MonthlyIncome,
		WorkExperienceYears: req.WorkExperienceYears,
		LoanAmount:          req.LoanAmount,
		TenureYears:         req.TenureYears,
		Purpose:             purpose,
		PropertyAddress:     req.PropertyAddress,
		PropertyValue:       req.PropertyValue,
	}

	if req.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			return model.Applicant{}, valueobject.InvalidInput("invalid date of birth %q: want YYYY-MM-DD", req.DateOfBirth)
		}
		a.DateOfBirth = dob
	}
	if req.Gender != "" {
		if a.Gender, err = valueobject.NewGender(req.Gender); err != nil {
			return model.Applicant{}, err
		}
	}
	if req.MaritalStatus != "" {
		if a.MaritalStatus, err = valueobject.NewMaritalStatus(req.MaritalStatus); err != nil {
			return model.Applicant{}, err
		}
	}
	if req.ResidenceType != "" {
		if a.ResidenceType, err = valueobject.NewResidenceType(req.ResidenceType); err != nil {
			return model.Applicant{}, err
		}
	}
	if c := req.CoApplicant; c != nil {
		co := &model.CoApplicant{Name: strings.TrimSpace(c.Name), Relation: c.Relation, MonthlyIncome: c.MonthlyIncome}
		if c.PAN != "" {
			if co.PAN, err = valueobject.NewPAN(c.PAN); err != nil {
				return model.Applicant{}, err
			}
		}
		a.CoApplicant = co
	}

	if err := a.Validate(); err != nil {
		return model.Applicant{}, err
	}
	return a, nil
}
