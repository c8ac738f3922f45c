package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/application/usecase"
	"github.com/bibbank/loan-origination/internal/domain/event"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/testutil"
)

func validSubmitRequest() dto.SubmitApplicationRequest {
	return dto.SubmitApplicationRequest{
		FullName:            "Ravi Kumar",
		DateOfBirth:         "1986-09-12",
		Gender:              "male",
		MaritalStatus:       "married",
		PAN:                 "abcde1234f",
		Aadhaar:             "1234 5678 9012",
		Email:               "ravi@example.com",
		Phone:               "9123456780",
		City:                "Pune",
		Pincode:             "411001",
		EmploymentType:      "salaried",
		EmployerName:        "Acme Ltd",
		MonthlyIncome:       decimal.NewFromInt(150_000),
		WorkExperienceYears: 8,
		LoanAmount:          decimal.NewFromInt(1_000_000),
		TenureYears:         20,
		Purpose:             "home_purchase",
	}
}

func newSubmitUseCase(repo *mockApplicationRepository, numbers ...string) *usecase.SubmitApplicationUseCase {
	if len(numbers) == 0 {
		numbers = []string{"LA100001"}
	}
	return usecase.NewSubmitApplicationUseCase(
		repo,
		&sequenceNumbers{applications: numbers},
		service.NewEligibilityScorer(),
		testutil.NewFixedClock(testutil.TestEpoch),
		discardLogger(),
	)
}

func TestSubmitApplication_Execute(t *testing.T) {
	t.Run("files the application at PENDING_RCPU", func(t *testing.T) {
		repo := newMockApplicationRepository()
		uc := newSubmitUseCase(repo)

		resp, err := uc.Execute(context.Background(), validSubmitRequest())
		require.NoError(t, err)

		assert.Equal(t, "LA100001", resp.ApplicationNumber)
		assert.Equal(t, valueobject.StatusPendingRCPU.String(), resp.Status)
		assert.Equal(t, 95, resp.EligibilityScore)
		assert.Equal(t, "XXXXXX234F", resp.PAN)
		assert.Equal(t, 1, resp.Version)
		assert.InDelta(t, 8678.23, resp.EstimatedEmi.InexactFloat64(), 0.5)

		require.Len(t, repo.created, 1)
		evts := repo.created[0].DomainEvents()
		require.Len(t, evts, 1)
		assert.IsType(t, event.ApplicationSubmitted{}, evts[0])
	})

	t.Run("draws a new number on collision", func(t *testing.T) {
		repo := newMockApplicationRepository()
		repo.createFunc = func(_ context.Context, app model.LoanApplication) error {
			if app.ApplicationNumber() == "LA100001" {
				return valueobject.ErrDuplicateNumber
			}
			return nil
		}
		uc := newSubmitUseCase(repo, "LA100001", "LA100002")

		resp, err := uc.Execute(context.Background(), validSubmitRequest())
		require.NoError(t, err)
		assert.Equal(t, "LA100002", resp.ApplicationNumber)

		submitted := repo.created[0].DomainEvents()[0].(event.ApplicationSubmitted)
		assert.Equal(t, "LA100002", submitted.ApplicationNumber)
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		repo := newMockApplicationRepository()
		repo.createFunc = func(context.Context, model.LoanApplication) error { return valueobject.ErrDuplicateNumber }
		uc := newSubmitUseCase(repo)

		_, err := uc.Execute(context.Background(), validSubmitRequest())
		assert.True(t, errors.Is(err, valueobject.ErrDuplicateNumber))
		assert.Empty(t, repo.created)
	})

	t.Run("duplicate PAN or Aadhaar is invalid input", func(t *testing.T) {
		repo := newMockApplicationRepository()
		repo.createFunc = func(context.Context, model.LoanApplication) error { return valueobject.ErrDuplicateIdentity }
		uc := newSubmitUseCase(repo)

		_, err := uc.Execute(context.Background(), validSubmitRequest())
		assert.True(t, errors.Is(err, valueobject.ErrInvalidInput))
	})

	t.Run("rejects malformed input before touching storage", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(r *dto.SubmitApplicationRequest)
		}{
			{"bad PAN", func(r *dto.SubmitApplicationRequest) { r.PAN = "12345ABCDE" }},
			{"bad Aadhaar", func(r *dto.SubmitApplicationRequest) { r.Aadhaar = "1234" }},
			{"bad phone", func(r *dto.SubmitApplicationRequest) { r.Phone = "12345" }},
			{"amount below minimum", func(r *dto.SubmitApplicationRequest) { r.LoanAmount = decimal.NewFromInt(10_000) }},
			{"amount above maximum", func(r *dto.SubmitApplicationRequest) { r.LoanAmount = decimal.NewFromInt(20_000_000) }},
			{"tenure too long", func(r *dto.SubmitApplicationRequest) { r.TenureYears = 35 }},
			{"unknown purpose", func(r *dto.SubmitApplicationRequest) { r.Purpose = "holiday" }},
			{"bad date of birth", func(r *dto.SubmitApplicationRequest) { r.DateOfBirth = "12/09/1986" }},
			{"zero income", func(r *dto.SubmitApplicationRequest) { r.MonthlyIncome = decimal.Zero }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newMockApplicationRepository()
				uc := newSubmitUseCase(repo)
				req := validSubmitRequest()
				tt.mutate(&req)

				_, err := uc.Execute(context.Background(), req)
				assert.True(t, errors.Is(err, valueobject.ErrInvalidInput), "got %v", err)
				assert.Empty(t, repo.created)
			})
		}
	})

	t.Run("co-applicant raises the score", func(t *testing.T) {
		repo := newMockApplicationRepository()
		uc := newSubmitUseCase(repo)
		req := validSubmitRequest()
		req.CoApplicant = &dto.CoApplicantRequest{Name: "Meena Kumar", Relation: "spouse", PAN: "PQRST6789K"}

		resp, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 100, resp.EligibilityScore)
		assert.True(t, resp.HasCoApplicant)
	})
}
