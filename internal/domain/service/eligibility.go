package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// EstimateRatePercent is the indicative rate quoted at submission.
const EstimateRatePercent = 8.5

// EligibilityScorer rates an applicant 0–100 at submission time.
type EligibilityScorer struct{}

func NewEligibilityScorer() *EligibilityScorer {
	return &EligibilityScorer{}
}

var (
	income100k = decimal.NewFromInt(100_000)
	income50k  = decimal.NewFromInt(50_000)
	income30k  = decimal.NewFromInt(30_000)
	ratio5     = decimal.NewFromInt(5)
	ratio8     = decimal.NewFromInt(8)
	twelve     = decimal.NewFromInt(12)
)

// Score sums five bands: income, employment type, experience, co-applicant
// and loan-to-annual-income ratio.
func (s *EligibilityScorer) Score(a model.Applicant) int {
	score := 0

	switch {
	case a.MonthlyIncome.GreaterThanOrEqual(income100k):
		score += 40
	case a.MonthlyIncome.GreaterThanOrEqual(income50k):
		score += 30
	case a.MonthlyIncome.GreaterThanOrEqual(income30k):
		score += 20
	default:
		score += 10
	}

	if a.EmploymentType.Equal(valueobject.EmploymentSalaried) {
		score += 20
	} else {
		score += 15
	}

	switch {
	case a.WorkExperienceYears >= 5:
		score += 20
	case a.WorkExperienceYears >= 2:
		score += 15
	default:
		score += 10
	}

	if a.HasCoApplicant() {
		score += 10
	} else {
		score += 5
	}

	annualIncome := a.MonthlyIncome.Mul(twelve)
	if annualIncome.IsPositive() {
		ratio := a.LoanAmount.DivRound(annualIncome, 2)
		switch {
		case ratio.LessThanOrEqual(ratio5):
			score += 10
		case ratio.LessThanOrEqual(ratio8):
			score += 7
		default:
			score += 3
		}
	}

	return min(score, 100)
}

// EstimateEmi is the indicative installment shown at submission, computed in
// floating point at EstimateRatePercent. It is informational only and is
// never used for the schedule, which the AmortizationEngine computes in
// decimal from the offer terms.
func (s *EligibilityScorer) EstimateEmi(amount decimal.Decimal, tenureYears int) decimal.Decimal {
	p, _ := amount.Float64()
	r := EstimateRatePercent / 12 / 100
	n := float64(tenureYears * 12)
	if n <= 0 {
		return decimal.Zero
	}
	growth := math.Pow(1+r, n)
	emi := p * r * growth / (growth - 1)
	return decimal.NewFromFloat(emi).Round(2)
}
