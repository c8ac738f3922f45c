package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CoApplicantRequest describes an optional second borrower.
type CoApplicantRequest struct {
	Name          string          `json:"name"`
	Relation      string          `json:"relation"`
	PAN           string          `json:"pan"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
}

// SubmitApplicationRequest carries everything captured on the application form.
// DateOfBirth is formatted YYYY-MM-DD.
type SubmitApplicationRequest struct {
	FullName      string `json:"full_name"`
	DateOfBirth   string `json:"date_of_birth"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"marital_status"`
	PAN           string `json:"pan"`
	Aadhaar       string `json:"aadhaar"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`

	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	ResidenceType string `json:"residence_type"`

	EmploymentType      string          `json:"employment_type"`
	EmployerName        string          `json:"employer_name"`
	MonthlyIncome       decimal.Decimal `json:"monthly_income"`
	WorkExperienceYears int             `json:"work_experience_years"`

	LoanAmount      decimal.Decimal `json:"loan_amount"`
	TenureYears     int             `json:"tenure_years"`
	Purpose         string          `json:"purpose"`
	PropertyAddress string          `json:"property_address"`
	PropertyValue   decimal.Decimal `json:"property_value"`

	CoApplicant *CoApplicantRequest `json:"co_applicant,omitempty"`
}

// StageDecisionRequest is a decision taken by ActorEmail at Stage.
type StageDecisionRequest struct {
	ApplicationID string `json:"application_id"`
	ActorEmail    string `json:"actor_email"`
	Stage         string `json:"stage"`
	Decision      string `json:"decision"`
	Remarks       string `json:"remarks"`
}

// CancelApplicationRequest withdraws an application.
type CancelApplicationRequest struct {
	ApplicationID string `json:"application_id"`
	ActorEmail    string `json:"actor_email"`
	Reason        string `json:"reason"`
}

// GenerateOfferRequest issues the offer and EMI schedule. Zero ApprovedAmount
// or TenureYears fall back to the values on the application.
type GenerateOfferRequest struct {
	ApplicationID  string          `json:"application_id"`
	ActorEmail     string          `json:"actor_email"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TenureYears    int             `json:"tenure_years"`
}

// ApplyPaymentRequest records a payment against one schedule row.
type ApplyPaymentRequest struct {
	RowID   string          `json:"row_id"`
	Amount  decimal.Decimal `json:"amount"`
	Remarks string          `json:"remarks"`
}

// MarkOverdueRequest triggers an overdue sweep. The sweep always runs as of
// the service clock.
type MarkOverdueRequest struct{}

// ListApplicationsRequest filters applications by status.
type ListApplicationsRequest struct {
	Status string `json:"status"`
}

// GetApplicationRequest identifies an application.
type GetApplicationRequest struct {
	ApplicationID string `json:"application_id"`
}

// RegisterActorRequest adds or replaces a staff member on behalf of
// ActorEmail, who must be an ADMIN.
type RegisterActorRequest struct {
	ActorEmail string `json:"actor_email"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ApplicationResponse is the external view of an application. Identity
// numbers are masked.
type ApplicationResponse struct {
	ID                string          `json:"id"`
	ApplicationNumber string          `json:"application_number"`
	FullName          string          `json:"full_name"`
	Email             string          `json:"email"`
	Phone             string          `json:"phone"`
	PAN               string          `json:"pan"`
	Aadhaar           string          `json:"aadhaar"`
	EmploymentType    string          `json:"employment_type"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	LoanAmount        decimal.Decimal `json:"loan_amount"`
	TenureYears       int             `json:"tenure_years"`
	Purpose           string          `json:"purpose"`
	HasCoApplicant    bool            `json:"has_co_applicant"`
	Status            string          `json:"status"`
	EligibilityScore  int             `json:"eligibility_score"`
	EstimatedEmi      decimal.Decimal `json:"estimated_emi"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HistoryEntryResponse is one audit row.
type HistoryEntryResponse struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	ActorEmail string    `json:"actor_email"`
	Stage      string    `json:"stage"`
	Decision   string    `json:"decision"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryResponse is the full audit trail, oldest first.
type HistoryResponse struct {
	ApplicationID string                 `json:"application_id"`
	Entries       []HistoryEntryResponse `json:"entries"`
}

// OfferResponse is the external view of an issued offer.
type OfferResponse struct {
	ID                string          `json:"id"`
	ApplicationID     string          `json:"application_id"`
	OfferLetterNumber string          `json:"offer_letter_number"`
	ApprovedAmount    decimal.Decimal `json:"approved_amount"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	TenureYears       int             `json:"tenure_years"`
	EmiAmount         decimal.Decimal `json:"emi_amount"`
	ProcessingFee     decimal.Decimal `json:"processing_fee"`
	Terms             string          `json:"terms"`
	IssuedBy          string          `json:"issued_by"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ScheduleRowResponse is one installment.
type ScheduleRowResponse struct {
	ID               string          `json:"id"`
	EmiNumber        int             `json:"emi_number"`
	DueDate          string          `json:"due_date"`
	EmiAmount        decimal.Decimal `json:"emi_amount"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	OutstandingAfter decimal.Decimal `json:"outstanding_after"`
	Status           string          `json:"status"`
	PaidDate         string          `json:"paid_date,omitempty"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	LateFee          decimal.Decimal `json:"late_fee"`
	Remarks          string          `json:"remarks,omitempty"`
}

// ScheduleResponse is an offer together with its installments.
type ScheduleResponse struct {
	ApplicationStatus string                `json:"application_status,omitempty"`
	Offer             OfferResponse         `json:"offer"`
	Rows              []ScheduleRowResponse `json:"rows"`
}

// LedgerSummaryResponse is the reporting view of a schedule.
type LedgerSummaryResponse struct {
	ApplicationID string               `json:"application_id"`
	Currency      string               `json:"currency"`
	Outstanding   decimal.Decimal      `json:"outstanding"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	LateFees      decimal.Decimal      `json:"late_fees"`
	PaidCount     int                  `json:"paid_count"`
	OverdueCount  int                  `json:"overdue_count"`
	TotalCount    int                  `json:"total_count"`
	NextDue       *ScheduleRowResponse `json:"next_due,omitempty"`
}

// MarkOverdueResponse reports the outcome of a sweep.
type MarkOverdueResponse struct {
	AsOf    string `json:"as_of"`
	Flipped int    `json:"flipped"`
	Skipped int    `json:"skipped"`
}

// ActorResponse is the external view of a staff member.
type ActorResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}
