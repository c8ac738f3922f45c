package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// Product limits for a secured home loan.
var (
	MinLoanAmount = decimal.NewFromInt(50_000)
	MaxLoanAmount = decimal.NewFromInt(10_000_000)
)

const (
	MinTenureYears = 5
	MaxTenureYears = 30
)

// CoApplicant is an optional second borrower.
type CoApplicant struct {
	Name          string
	Relation      string
	PAN           valueobject.PAN
	MonthlyIncome decimal.Decimal
}

// Applicant holds the facts captured at submission. It is a value: the
// application never changes it after creation.
type Applicant struct {
	FullName      string
	DateOfBirth   time.Time
	Gender        valueobject.Gender
	MaritalStatus valueobject.MaritalStatus
	PAN           valueobject.PAN
	Aadhaar       valueobject.Aadhaar
	Email         string
	Phone         string

	Address       string
	City          string
	State         string
	Pincode       string
	ResidenceType valueobject.ResidenceType

	EmploymentType      valueobject.EmploymentType
	EmployerName        string
	MonthlyIncome       decimal.Decimal
	WorkExperienceYears int

	LoanAmount      decimal.Decimal
	TenureYears     int
	Purpose         valueobject.LoanPurpose
	PropertyAddress string
	PropertyValue   decimal.Decimal

	CoApplicant *CoApplicant
}

// Validate enforces the product rules. All failures are InvalidInput.
func (a Applicant) Validate() error {
	if strings.TrimSpace(a.FullName) == "" {
		return valueobject.InvalidInput("full name is required")
	}
	if a.PAN.IsZero() {
		return valueobject.InvalidInput("PAN is required")
	}
	if a.Aadhaar.IsZero() {
		return valueobject.InvalidInput("Aadhaar number is required")
	}
	if !strings.Contains(a.Email, "@") {
		return valueobject.InvalidInput("invalid email: %q", a.Email)
	}
	if err := valueobject.ValidatePhone(a.Phone); err != nil {
		return err
	}
	if a.Pincode != "" {
		if err := valueobject.ValidatePincode(a.Pincode); err != nil {
			return err
		}
	}
	if a.EmploymentType.String() == "" {
		return valueobject.InvalidInput("employment type is required")
	}
	if a.Purpose.String() == "" {
		return valueobject.InvalidInput("loan purpose is required")
	}
	if !a.MonthlyIncome.IsPositive() {
		return valueobject.InvalidInput("monthly income must be positive")
	}
	if a.WorkExperienceYears < 0 {
		return valueobject.InvalidInput("work experience cannot be negative")
	}
	if a.LoanAmount.LessThan(MinLoanAmount) || a.LoanAmount.GreaterThan(MaxLoanAmount) {
		return valueobject.InvalidInput("loan amount must be between %s and %s", MinLoanAmount, MaxLoanAmount)
	}
	if a.TenureYears < MinTenureYears || a.TenureYears > MaxTenureYears {
		return valueobject.InvalidInput("loan tenure must be between %d and %d years", MinTenureYears, MaxTenureYears)
	}
	if a.PropertyValue.IsNegative() {
		return valueobject.InvalidInput("property value cannot be negative")
	}
	if c := a.CoApplicant; c != nil {
		if strings.TrimSpace(c.Name) == "" {
			return valueobject.InvalidInput("co-applicant name is required")
		}
		if c.MonthlyIncome.IsNegative() {
			return valueobject.InvalidInput("co-applicant income cannot be negative")
		}
	}
	return nil
}

// HasCoApplicant reports whether a second borrower was declared.
func (a Applicant) HasCoApplicant() bool { return a.CoApplicant != nil }
