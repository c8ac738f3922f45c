package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/event"
)

// LoanOffer is the sanctioned offer issued for an approved application. An
// application has at most one.
type LoanOffer struct {
	id                string
	applicationID     string
	offerLetterNumber string
	approvedAmount    decimal.Decimal
	interestRate      decimal.Decimal
	tenureYears       int
	emiAmount         decimal.Decimal
	processingFee     decimal.Decimal
	terms             string
	issuedBy          string
	createdAt         time.Time
}

// NewLoanOffer validates and creates an offer. The returned event is recorded
// on the application by the caller.
func NewLoanOffer(
	applicationID, offerLetterNumber string,
	approvedAmount, interestRate decimal.Decimal,
	tenureYears int,
	emiAmount, processingFee decimal.Decimal,
	terms string,
	issuedBy Actor,
	now time.Time,
) (LoanOffer, event.OfferIssued, error) {
	if applicationID == "" || offerLetterNumber == "" {
		return LoanOffer{}, event.OfferIssued{}, errors.New("application ID and offer letter number are required")
	}
	if !approvedAmount.IsPositive() {
		return LoanOffer{}, event.OfferIssued{}, errors.New("approved amount must be positive")
	}

	offer := LoanOffer{
		id:                uuid.New().String(),
		applicationID:     applicationID,
		offerLetterNumber: offerLetterNumber,
		approvedAmount:    approvedAmount,
		interestRate:      interestRate,
		tenureYears:       tenureYears,
		emiAmount:         emiAmount,
		processingFee:     processingFee,
		terms:             terms,
		issuedBy:          issuedBy.ID(),
		createdAt:         now,
	}
	issued := event.NewOfferIssued(
		applicationID, offerLetterNumber, approvedAmount, interestRate, tenureYears,
		emiAmount, processingFee, tenureYears*12, now,
	)
	return offer, issued, nil
}

func ReconstructLoanOffer(
	id, applicationID, offerLetterNumber string,
	approvedAmount, interestRate decimal.Decimal,
	tenureYears int,
	emiAmount, processingFee decimal.Decimal,
	terms, issuedBy string,
	createdAt time.Time,
) LoanOffer {
	return LoanOffer{
		id:                id,
		applicationID:     applicationID,
		offerLetterNumber: offerLetterNumber,
		approvedAmount:    approvedAmount,
		interestRate:      interestRate,
		tenureYears:       tenureYears,
		emiAmount:         emiAmount,
		processingFee:     processingFee,
		terms:             terms,
		issuedBy:          issuedBy,
		createdAt:         createdAt,
	}
}

func (o LoanOffer) ID() string                      { return o.id }
func (o LoanOffer) ApplicationID() string           { return o.applicationID }
func (o LoanOffer) OfferLetterNumber() string       { return o.offerLetterNumber }
func (o LoanOffer) ApprovedAmount() decimal.Decimal { return o.approvedAmount }
func (o LoanOffer) InterestRate() decimal.Decimal   { return o.interestRate }
func (o LoanOffer) TenureYears() int                { return o.tenureYears }
func (o LoanOffer) EmiAmount() decimal.Decimal      { return o.emiAmount }
func (o LoanOffer) ProcessingFee() decimal.Decimal  { return o.processingFee }
func (o LoanOffer) Terms() string                   { return o.terms }
func (o LoanOffer) IssuedBy() string                { return o.issuedBy }
func (o LoanOffer) CreatedAt() time.Time            { return o.createdAt }
