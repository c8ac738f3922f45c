package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/money"
)

// AmortizationEngine computes reducing-balance annuity installments and
// expands them into month-by-month schedules. All arithmetic is decimal;
// only finalized monetary figures are rounded.
type AmortizationEngine struct{}

func NewAmortizationEngine() *AmortizationEngine {
	return &AmortizationEngine{}
}

// ComputeInstallment returns EMI = P·r·(1+r)^n / ((1+r)^n − 1), with r the
// monthly rate and n = tenureYears·12. A zero rate falls back to P/n.
func (e *AmortizationEngine) ComputeInstallment(
	principal, annualRatePercent decimal.Decimal,
	tenureYears int,
) (decimal.Decimal, error) {
	if err := validateTerms(principal, annualRatePercent, tenureYears); err != nil {
		return decimal.Zero, err
	}

	n := int64(tenureYears * 12)
	r := money.MonthlyRate(annualRatePercent)
	if r.IsZero() {
		return money.Round(principal.Div(decimal.NewFromInt(n))), nil
	}

	growth := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(n))
	numerator := principal.Mul(r).Mul(growth)
	denominator := growth.Sub(decimal.NewFromInt(1))
	return money.Round(numerator.Div(denominator)), nil
}

// GenerateSchedule expands emi into n rows. Row i is due i months after
// start. Each row's interest is round(outstanding·r) and principal is
// emi − interest; the final row instead takes the whole remaining balance as
// principal and adjusts its EMI, so the schedule always ends at exactly zero.
func (e *AmortizationEngine) GenerateSchedule(
	applicationID string,
	principal, annualRatePercent decimal.Decimal,
	tenureYears int,
	emi decimal.Decimal,
	start time.Time,
) ([]model.EmiScheduleRow, error) {
	if err := validateTerms(principal, annualRatePercent, tenureYears); err != nil {
		return nil, err
	}
	if !emi.IsPositive() {
		return nil, valueobject.InvalidInput("emi amount must be positive")
	}

	n := tenureYears * 12
	r := money.MonthlyRate(annualRatePercent)
	first := model.DateOf(start)
	outstanding := principal

	rows := make([]model.EmiScheduleRow, 0, n)
	for i := 1; i <= n; i++ {
		interest := money.Round(outstanding.Mul(r))
		rowPrincipal := emi.Sub(interest)
		rowEmi := emi
		if i == n {
			rowPrincipal = outstanding
			rowEmi = rowPrincipal.Add(interest)
		}
		outstanding = outstanding.Sub(rowPrincipal)

		rows = append(rows, model.NewEmiScheduleRow(
			applicationID, i, model.AddMonths(first, i),
			rowEmi, rowPrincipal, interest, outstanding,
		))
	}
	return rows, nil
}

func validateTerms(principal, annualRatePercent decimal.Decimal, tenureYears int) error {
	if !principal.IsPositive() {
		return valueobject.InvalidInput("principal must be positive")
	}
	if annualRatePercent.IsNegative() {
		return valueobject.InvalidInput("interest rate cannot be negative")
	}
	if tenureYears <= 0 {
		return valueobject.InvalidInput("tenure must be at least one year")
	}
	return nil
}
