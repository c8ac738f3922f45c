// Package persistence holds the row shapes shared by the PostgreSQL and
// SQLite repositories, and their mapping to and from the domain model.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Applications
// ---------------------------------------------------------------------------

// ApplicationRecord is one loan_applications row.
type ApplicationRecord struct {
	ID                  string
	ApplicationNumber   string
	FullName            string
	DateOfBirth         *time.Time
	Gender              string
	MaritalStatus       string
	PAN                 string
	Aadhaar             string
	Email               string
	Phone               string
	Address             string
	City                string
	State               string
	Pincode             string
	ResidenceType       string
	EmploymentType      string
	EmployerName        string
	MonthlyIncome       decimal.Decimal
	WorkExperienceYears int
	LoanAmount          decimal.Decimal
	TenureYears         int
	Purpose             string
	PropertyAddress     string
	PropertyValue       decimal.Decimal
	CoApplicant         []byte
	Status              string
	EligibilityScore    int
	EstimatedEmi        decimal.Decimal
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type coApplicantJSON struct {
	Name          string          `json:"name"`
	Relation      string          `json:"relation"`
	PAN           string          `json:"pan,omitempty"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
}

// NewApplicationRecord flattens an application for storage.
func NewApplicationRecord(app model.LoanApplication) (ApplicationRecord, error) {
	a := app.Applicant()
	rec := ApplicationRecord{
		ID:                  app.ID(),
		ApplicationNumber:   app.ApplicationNumber(),
		FullName:            a.FullName,
		Gender:              a.Gender.String(),
		MaritalStatus:       a.MaritalStatus.String(),
		PAN:                 a.PAN.String(),
		Aadhaar:             a.Aadhaar.String(),
		Email:               a.Email,
		Phone:               a.Phone,
		Address:             a.Address,
		City:                a.City,
		State:               a.State,
		Pincode:             a.Pincode,
		ResidenceType:       a.ResidenceType.String(),
		EmploymentType:      a.EmploymentType.String(),
		EmployerName:        a.EmployerName,
		MonthlyIncome:       a.MonthlyIncome,
		WorkExperienceYears: a.WorkExperienceYears,
		LoanAmount:          a.LoanAmount,
		TenureYears:         a.TenureYears,
		Purpose:             a.Purpose.String(),
		PropertyAddress:     a.PropertyAddress,
		PropertyValue:       a.PropertyValue,
		Status:              app.Status().String(),
		EligibilityScore:    app.EligibilityScore(),
		EstimatedEmi:        app.EstimatedEmi(),
		Version:             app.Version(),
		CreatedAt:           app.CreatedAt(),
		UpdatedAt:           app.UpdatedAt(),
	}
	if !a.DateOfBirth.IsZero() {
		dob := model.DateOf(a.DateOfBirth)
		rec.DateOfBirth = &dob
	}
	if c := a.CoApplicant; c != nil {
		raw, err := json.Marshal(coApplicantJSON{
			Name:          c.Name,
			Relation:      c.Relation,
			PAN:           c.PAN.String(),
			MonthlyIncome: c.MonthlyIncome,
		})
		if err != nil {
			return ApplicationRecord{}, fmt.Errorf("marshal co-applicant: %w", err)
		}
		rec.CoApplicant = raw
	}
	return rec, nil
}

// Application rebuilds the aggregate. Stored enums are re-parsed so a
// corrupt row surfaces as an error rather than a zero value.
func (r ApplicationRecord) Application() (model.LoanApplication, error) {
	status, err := valueobject.NewApplicationStatus(r.Status)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse status: %w", err)
	}
	pan, err := valueobject.NewPAN(r.PAN)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse pan: %w", err)
	}
	aadhaar, err := valueobject.NewAadhaar(r.Aadhaar)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse aadhaar: %w", err)
	}
	employment, err := valueobject.NewEmploymentType(r.EmploymentType)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse employment type: %w", err)
	}
	purpose, err := valueobject.NewLoanPurpose(r.Purpose)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse purpose: %w", err)
	}
	gender, err := optional(r.Gender, valueobject.NewGender)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse gender: %w", err)
	}
	marital, err := optional(r.MaritalStatus, valueobject.NewMaritalStatus)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse marital status: %w", err)
	}
	residence, err := optional(r.ResidenceType, valueobject.NewResidenceType)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse residence type: %w", err)
	}

	applicant := model.Applicant{
		FullName:            r.FullName,
		Gender:              gender,
		MaritalStatus:       marital,
		PAN:                 pan,
		Aadhaar:             aadhaar,
		Email:               r.Email,
		Phone:               r.Phone,
		Address:             r.Address,
		City:                r.City,
		State:               r.State,
		Pincode:             r.Pincode,
		ResidenceType:       residence,
		EmploymentType:      employment,
		EmployerName:        r.EmployerName,
		MonthlyIncome:       r.MonthlyIncome,
		WorkExperienceYears: r.WorkExperienceYears,
		LoanAmount:          r.LoanAmount,
		TenureYears:         r.TenureYears,
		Purpose:             purpose,
		PropertyAddress:     r.PropertyAddress,
		PropertyValue:       r.PropertyValue,
	}
	if r.DateOfBirth != nil {
		applicant.DateOfBirth = model.DateOf(*r.DateOfBirth)
	}
	if len(r.CoApplicant) > 0 && string(r.CoApplicant) != "null" {
		var c coApplicantJSON
		if err := json.Unmarshal(r.CoApplicant, &c); err != nil {
			return model.LoanApplication{}, fmt.Errorf("unmarshal co-applicant: %w", err)
		}
		co := &model.CoApplicant{Name: c.Name, Relation: c.Relation, MonthlyIncome: c.MonthlyIncome}
		if c.PAN != "" {
			if co.PAN, err = valueobject.NewPAN(c.PAN); err != nil {
				return model.LoanApplication{}, fmt.Errorf("parse co-applicant pan: %w", err)
			}
		}
		applicant.CoApplicant = co
	}

	return model.ReconstructLoanApplication(
		r.ID, r.ApplicationNumber,
		applicant,
		status,
		r.EligibilityScore,
		r.EstimatedEmi,
		r.Version,
		r.CreatedAt, r.UpdatedAt,
	), nil
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// HistoryEntry rebuilds an audit row from its stored columns.
func HistoryEntry(
	id, applicationID, actorID, actorEmail, stage, decision, remarks string,
	createdAt time.Time,
) (model.ApprovalHistoryEntry, error) {
	st, err := valueobject.NewStage(stage)
	if err != nil {
		return model.ApprovalHistoryEntry{}, fmt.Errorf("parse stage: %w", err)
	}
	d, err := valueobject.NewDecision(decision)
	if err != nil {
		return model.ApprovalHistoryEntry{}, fmt.Errorf("parse decision: %w", err)
	}
	return model.ReconstructApprovalHistoryEntry(id, applicationID, actorID, actorEmail, st, d, remarks, createdAt), nil
}

// ---------------------------------------------------------------------------
// Schedule rows
// ---------------------------------------------------------------------------

// RowRecord is one emi_schedule row.
type RowRecord struct {
	ID               string
	ApplicationID    string
	EmiNumber        int
	DueDate          time.Time
	EmiAmount        decimal.Decimal
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	OutstandingAfter decimal.Decimal
	Status           string
	PaidDate         *time.Time
	PaidAmount       decimal.Decimal
	LateFee          decimal.Decimal
	Remarks          string
	Version          int
}

func NewRowRecord(row model.EmiScheduleRow) RowRecord {
	return RowRecord{
		ID:               row.ID(),
		ApplicationID:    row.ApplicationID(),
		EmiNumber:        row.EmiNumber(),
		DueDate:          row.DueDate(),
		EmiAmount:        row.EmiAmount(),
		Principal:        row.Principal(),
		Interest:         row.Interest(),
		OutstandingAfter: row.OutstandingAfter(),
		Status:           row.Status().String(),
		PaidDate:         row.PaidDate(),
		PaidAmount:       row.PaidAmount(),
		LateFee:          row.LateFee(),
		Remarks:          row.Remarks(),
		Version:          row.Version(),
	}
}

func (r RowRecord) Row() (model.EmiScheduleRow, error) {
	status, err := valueobject.NewEmiStatus(r.Status)
	if err != nil {
		return model.EmiScheduleRow{}, fmt.Errorf("parse emi status: %w", err)
	}
	var paid *time.Time
	if r.PaidDate != nil {
		d := model.DateOf(*r.PaidDate)
		paid = &d
	}
	return model.ReconstructEmiScheduleRow(
		r.ID, r.ApplicationID,
		r.EmiNumber,
		r.DueDate,
		r.EmiAmount, r.Principal, r.Interest, r.OutstandingAfter,
		status,
		paid,
		r.PaidAmount, r.LateFee,
		r.Remarks,
		r.Version,
	), nil
}

// ---------------------------------------------------------------------------
// Actors
// ---------------------------------------------------------------------------

// Actor rebuilds a staff member from its stored columns.
func Actor(id, email, fullName, role string, active bool, createdAt time.Time) (model.Actor, error) {
	r, err := valueobject.NewRole(role)
	if err != nil {
		return model.Actor{}, fmt.Errorf("parse role: %w", err)
	}
	return model.ReconstructActor(id, email, fullName, r, active, createdAt), nil
}

func optional[T any](s string, parse func(string) (T, error)) (T, error) {
	if s == "" {
		var zero T
		return zero, nil
	}
	return parse(s)
}
