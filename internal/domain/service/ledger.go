package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/money"
)

// LedgerPolicy holds the servicing constants.
type LedgerPolicy struct {
	DailyLateFee decimal.Decimal
}

// DefaultLedgerPolicy charges 100 per day late.
func DefaultLedgerPolicy() LedgerPolicy {
	return LedgerPolicy{DailyLateFee: decimal.NewFromInt(100)}
}

// LedgerSummary is the reporting projection of a schedule. Amounts share the
// schedule's currency.
type LedgerSummary struct {
	Outstanding  money.Money
	PaidAmount   money.Money
	LateFees     money.Money
	PaidCount    int
	OverdueCount int
	TotalCount   int
	NextDue      *model.EmiScheduleRow
}

// Summarize projects rows held in currency. Outstanding is the sum of EMI
// amounts over every row not PAID; partial payments do not reduce it.
func Summarize(rows []model.EmiScheduleRow, today time.Time, currency money.Currency) (LedgerSummary, error) {
	s := LedgerSummary{
		Outstanding: money.Zero(currency),
		PaidAmount:  money.Zero(currency),
		LateFees:    money.Zero(currency),
		TotalCount:  len(rows),
	}
	var err error
	for i := range rows {
		row := rows[i]
		if s.PaidAmount, err = s.PaidAmount.Add(money.New(row.PaidAmount(), currency)); err != nil {
			return LedgerSummary{}, fmt.Errorf("emi %d paid amount: %w", row.EmiNumber(), err)
		}
		if s.LateFees, err = s.LateFees.Add(money.New(row.LateFee(), currency)); err != nil {
			return LedgerSummary{}, fmt.Errorf("emi %d late fee: %w", row.EmiNumber(), err)
		}
		if row.IsSettled() {
			s.PaidCount++
			continue
		}
		if s.Outstanding, err = s.Outstanding.Add(money.New(row.EmiAmount(), currency)); err != nil {
			return LedgerSummary{}, fmt.Errorf("emi %d amount: %w", row.EmiNumber(), err)
		}
		if row.Status().Equal(valueobject.EmiStatusOverdue) || row.DueDate().Before(model.DateOf(today)) {
			s.OverdueCount++
		}
		if s.NextDue == nil || row.EmiNumber() < s.NextDue.EmiNumber() {
			s.NextDue = &row
		}
	}
	return s, nil
}
