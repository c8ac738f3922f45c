package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/money"
)

// OfferPolicy governs offer issuance.
type OfferPolicy struct {
	IssuerRole       valueobject.Role
	FeeRate          decimal.Decimal
	MinProcessingFee decimal.Decimal
	MaxProcessingFee decimal.Decimal
}

// DefaultOfferPolicy: ADMIN issues; fee is 1% clamped to [5,000, 50,000].
func DefaultOfferPolicy() OfferPolicy {
	return OfferPolicy{
		IssuerRole:       valueobject.RoleAdmin,
		FeeRate:          decimal.RequireFromString("0.01"),
		MinProcessingFee: decimal.NewFromInt(5_000),
		MaxProcessingFee: decimal.NewFromInt(50_000),
	}
}

// ProcessingFee applies the fee rate to amount and clamps the result.
func (p OfferPolicy) ProcessingFee(amount decimal.Decimal) decimal.Decimal {
	return money.Clamp(money.Round(amount.Mul(p.FeeRate)), p.MinProcessingFee, p.MaxProcessingFee)
}

// CanIssue reports whether an offer may be generated from status. From
// PENDING_L3 the issuance also records the L3 approval.
func (p OfferPolicy) CanIssue(status valueobject.ApplicationStatus) bool {
	return status.IsApproved() || status.Equal(valueobject.StatusPendingL3)
}

// Terms renders the standard terms text of an offer.
func (p OfferPolicy) Terms(app model.LoanApplication, amount, rate, emi, fee decimal.Decimal, tenureYears int) string {
	return fmt.Sprintf(
		"Sanctioned amount INR %s for %s at %s%% p.a. over %d years (%d monthly installments of INR %s). "+
			"Processing fee INR %s. Secured against the property at %s. Late payments attract a fee per day of delay.",
		amount.StringFixed(2), app.Applicant().Purpose, rate.String(), tenureYears, tenureYears*12,
		emi.StringFixed(2), fee.StringFixed(2), propertyOrAddress(app.Applicant()),
	)
}

func propertyOrAddress(a model.Applicant) string {
	if a.PropertyAddress != "" {
		return a.PropertyAddress
	}
	return "the declared address"
}
