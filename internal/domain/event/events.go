package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const aggregateApplication = "LoanApplication"

// ---------------------------------------------------------------------------
// Application lifecycle
// ---------------------------------------------------------------------------

// ApplicationSubmitted is raised when an application enters the pipeline.
type ApplicationSubmitted struct {
	events.BaseEvent
	ApplicationNumber string          `json:"application_number"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	TenureYears       int             `json:"tenure_years"`
	EligibilityScore  int             `json:"eligibility_score"`
	Status            string          `json:"status"`
}

func NewApplicationSubmitted(
	applicationID, number string,
	amount decimal.Decimal, tenureYears, score int,
	status string, at time.Time,
) ApplicationSubmitted {
	return ApplicationSubmitted{
		BaseEvent:         events.NewBaseEvent("origination.application.submitted", applicationID, aggregateApplication, at),
		ApplicationNumber: number,
		LoanAmount:        amount,
		TenureYears:       tenureYears,
		EligibilityScore:  score,
		Status:            status,
	}
}

// StageDecided is raised for every approval-stage decision.
type StageDecided struct {
	events.BaseEvent
	Stage      string `json:"stage"`
	Decision   string `json:"decision"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id"`
	Remarks    string `json:"remarks,omitempty"`
}

func NewStageDecided(
	applicationID, stage, decision, from, to, actorID, remarks string, at time.Time,
) StageDecided {
	return StageDecided{
		BaseEvent:  events.NewBaseEvent("origination.application.stage_decided", applicationID, aggregateApplication, at),
		Stage:      stage,
		Decision:   decision,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Remarks:    remarks,
	}
}

// ApplicationCancelled is raised when an administrator withdraws an application.
type ApplicationCancelled struct {
	events.BaseEvent
	FromStatus string `json:"from_status"`
	ActorID    string `json:"actor_id"`
	Reason     string `json:"reason,omitempty"`
}

func NewApplicationCancelled(applicationID, from, actorID, reason string, at time.Time) ApplicationCancelled {
	return ApplicationCancelled{
		BaseEvent:  events.NewBaseEvent("origination.application.cancelled", applicationID, aggregateApplication, at),
		FromStatus: from,
		ActorID:    actorID,
		Reason:     reason,
	}
}

// ---------------------------------------------------------------------------
// Offer and servicing
// ---------------------------------------------------------------------------

// OfferIssued is raised once, when the offer and its schedule are created.
type OfferIssued struct {
	events.BaseEvent
	OfferLetterNumber string          `json:"offer_letter_number"`
	ApprovedAmount    decimal.Decimal `json:"approved_amount"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TenureYears       int             `json:"tenure_years"`
	EmiAmount         decimal.Decimal `json:"emi_amount"`
	ProcessingFee     decimal.Decimal `json:"processing_fee"`
	Installments      int             `json:"installments"`
}

func NewOfferIssued(
	applicationID, letterNumber string,
	amount, rate decimal.Decimal, tenureYears int,
	emi, fee decimal.Decimal, installments int, at time.Time,
) OfferIssued {
	return OfferIssued{
		BaseEvent:         events.NewBaseEvent("origination.offer.issued", applicationID, aggregateApplication, at),
		OfferLetterNumber: letterNumber,
		ApprovedAmount:    amount,
		InterestRate:      rate,
		TenureYears:       tenureYears,
		EmiAmount:         emi,
		ProcessingFee:     fee,
		Installments:      installments,
	}
}

// PaymentApplied is raised when a payment is recorded against a schedule row.
type PaymentApplied struct {
	events.BaseEvent
	RowID      string          `json:"row_id"`
	EmiNumber  int             `json:"emi_number"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	LateFee    decimal.Decimal `json:"late_fee"`
	Status     string          `json:"status"`
}

func NewPaymentApplied(
	applicationID, rowID string, emiNumber int,
	paid, lateFee decimal.Decimal, status string, at time.Time,
) PaymentApplied {
	return PaymentApplied{
		BaseEvent:  events.NewBaseEvent("origination.emi.payment_applied", applicationID, aggregateApplication, at),
		RowID:      rowID,
		EmiNumber:  emiNumber,
		PaidAmount: paid,
		LateFee:    lateFee,
		Status:     status,
	}
}

// InstallmentOverdue is raised when the sweep flips a row to OVERDUE.
type InstallmentOverdue struct {
	events.BaseEvent
	RowID     string          `json:"row_id"`
	EmiNumber int             `json:"emi_number"`
	DueDate   string          `json:"due_date"`
	EmiAmount decimal.Decimal `json:"emi_amount"`
}

func NewInstallmentOverdue(
	applicationID, rowID string, emiNumber int, dueDate time.Time, emi decimal.Decimal, at time.Time,
) InstallmentOverdue {
	return InstallmentOverdue{
		BaseEvent: events.NewBaseEvent("origination.emi.overdue", applicationID, aggregateApplication, at),
		RowID:     rowID,
		EmiNumber: emiNumber,
		DueDate:   dueDate.Format(time.DateOnly),
		EmiAmount: emi,
	}
}
