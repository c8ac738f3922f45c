package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/event"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/money"
)

// EmiScheduleRow is one installment of an amortization schedule. The
// amortization figures and due date are fixed at generation; only the
// settlement fields change afterwards.
type EmiScheduleRow struct {
	id               string
	applicationID    string
	emiNumber        int
	dueDate          time.Time
	emiAmount        decimal.Decimal
	principal        decimal.Decimal
	interest         decimal.Decimal
	outstandingAfter decimal.Decimal

	status     valueobject.EmiStatus
	paidDate   *time.Time
	paidAmount decimal.Decimal
	lateFee    decimal.Decimal
	remarks    string

	version      int
	domainEvents []event.DomainEvent
}

// NewEmiScheduleRow creates a PENDING installment.
func NewEmiScheduleRow(
	applicationID string,
	emiNumber int,
	dueDate time.Time,
	emiAmount, principal, interest, outstandingAfter decimal.Decimal,
) EmiScheduleRow {
	return EmiScheduleRow{
		id:               uuid.New().String(),
		applicationID:    applicationID,
		emiNumber:        emiNumber,
		dueDate:          DateOf(dueDate),
		emiAmount:        emiAmount,
		principal:        principal,
		interest:         interest,
		outstandingAfter: outstandingAfter,
		status:           valueobject.EmiStatusPending,
		paidAmount:       decimal.Zero,
		lateFee:          decimal.Zero,
		version:          1,
	}
}

// ReconstructEmiScheduleRow rebuilds a row from storage.
func ReconstructEmiScheduleRow(
	id, applicationID string,
	emiNumber int,
	dueDate time.Time,
	emiAmount, principal, interest, outstandingAfter decimal.Decimal,
	status valueobject.EmiStatus,
	paidDate *time.Time,
	paidAmount, lateFee decimal.Decimal,
	remarks string,
	version int,
) EmiScheduleRow {
	return EmiScheduleRow{
		id:               id,
		applicationID:    applicationID,
		emiNumber:        emiNumber,
		dueDate:          DateOf(dueDate),
		emiAmount:        emiAmount,
		principal:        principal,
		interest:         interest,
		outstandingAfter: outstandingAfter,
		status:           status,
		paidDate:         paidDate,
		paidAmount:       paidAmount,
		lateFee:          lateFee,
		remarks:          remarks,
		version:          version,
	}
}

// ---------------------------------------------------------------------------
// Ledger operations
// ---------------------------------------------------------------------------

// ApplyPayment records a payment made on today. The paid amount is this
// payment alone and decides the status: PAID when it covers the EMI,
// PARTIAL_PAID otherwise. A later payment on a PARTIAL_PAID row replaces the
// earlier amount. A late fee of daysLate × dailyLateFee is stored alongside
// and never deducted from the amount paid.
func (r EmiScheduleRow) ApplyPayment(
	amount decimal.Decimal,
	remarks string,
	today time.Time,
	dailyLateFee decimal.Decimal,
) (EmiScheduleRow, error) {
	if r.status.Equal(valueobject.EmiStatusPaid) {
		return r, fmt.Errorf("emi %d of application %s: %w", r.emiNumber, r.applicationID, valueobject.ErrAlreadySettled)
	}
	if !amount.IsPositive() {
		return r, valueobject.InvalidInput("payment amount must be positive")
	}

	day := DateOf(today)
	next := r
	next.paidAmount = money.Round(amount)
	next.paidDate = &day
	next.remarks = remarks
	next.version = r.version + 1

	if amount.GreaterThanOrEqual(r.emiAmount) {
		next.status = valueobject.EmiStatusPaid
	} else {
		next.status = valueobject.EmiStatusPartialPaid
	}

	if late := r.DaysLate(day); late > 0 {
		next.lateFee = money.Round(dailyLateFee.Mul(decimal.NewFromInt(int64(late))))
	}

	next.domainEvents = append(copyEvents(r.domainEvents), event.NewPaymentApplied(
		r.applicationID, r.id, r.emiNumber, amount, next.lateFee, next.status.String(), today,
	))
	return next, nil
}

// MarkOverdue flips a PENDING row whose due date is before today. Rows in any
// other status, or not yet due, are returned unchanged with false.
func (r EmiScheduleRow) MarkOverdue(today time.Time) (EmiScheduleRow, bool) {
	if !r.status.Equal(valueobject.EmiStatusPending) || !r.dueDate.Before(DateOf(today)) {
		return r, false
	}
	next := r
	next.status = valueobject.EmiStatusOverdue
	next.version = r.version + 1
	next.domainEvents = append(copyEvents(r.domainEvents), event.NewInstallmentOverdue(
		r.applicationID, r.id, r.emiNumber, r.dueDate, r.emiAmount, today,
	))
	return next, true
}

// DaysLate is how many days past the due date today is; zero when not late.
func (r EmiScheduleRow) DaysLate(today time.Time) int {
	if d := DaysBetween(r.dueDate, today); d > 0 {
		return d
	}
	return 0
}

// IsSettled is true once the row is PAID.
func (r EmiScheduleRow) IsSettled() bool {
	return r.status.Equal(valueobject.EmiStatusPaid)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (r EmiScheduleRow) ID() string                        { return r.id }
func (r EmiScheduleRow) ApplicationID() string             { return r.applicationID }
func (r EmiScheduleRow) EmiNumber() int                    { return r.emiNumber }
func (r EmiScheduleRow) DueDate() time.Time                { return r.dueDate }
func (r EmiScheduleRow) EmiAmount() decimal.Decimal        { return r.emiAmount }
func (r EmiScheduleRow) Principal() decimal.Decimal        { return r.principal }
func (r EmiScheduleRow) Interest() decimal.Decimal         { return r.interest }
func (r EmiScheduleRow) OutstandingAfter() decimal.Decimal { return r.outstandingAfter }
func (r EmiScheduleRow) Status() valueobject.EmiStatus     { return r.status }
func (r EmiScheduleRow) PaidAmount() decimal.Decimal       { return r.paidAmount }
func (r EmiScheduleRow) LateFee() decimal.Decimal          { return r.lateFee }
func (r EmiScheduleRow) Remarks() string                   { return r.remarks }
func (r EmiScheduleRow) Version() int                      { return r.version }
func (r EmiScheduleRow) PreviousVersion() int              { return r.version - 1 }

func (r EmiScheduleRow) PaidDate() *time.Time {
	if r.paidDate == nil {
		return nil
	}
	d := *r.paidDate
	return &d
}

func (r EmiScheduleRow) DomainEvents() []event.DomainEvent { return copyEvents(r.domainEvents) }
