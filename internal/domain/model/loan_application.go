package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/event"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// LoanApplication aggregate root
// ---------------------------------------------------------------------------

// LoanApplication is an immutable aggregate. Every mutation returns a new
// copy with its version bumped; repositories persist it only if the stored
// version is still the one the copy was derived from.
//
// History entries and schedule rows belong to the application but are not
// held here; they are loaded and saved through their own ports.
type LoanApplication struct {
	id                string
	applicationNumber string
	applicant         Applicant
	status            valueobject.ApplicationStatus
	eligibilityScore  int
	estimatedEmi      decimal.Decimal
	version           int
	createdAt         time.Time
	updatedAt         time.Time
	domainEvents      []event.DomainEvent
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoanApplication creates an application awaiting underwriting.
func NewLoanApplication(
	applicationNumber string,
	applicant Applicant,
	eligibilityScore int,
	estimatedEmi decimal.Decimal,
	now time.Time,
) (LoanApplication, error) {
	if applicationNumber == "" {
		return LoanApplication{}, errors.New("application number is required")
	}
	if err := applicant.Validate(); err != nil {
		return LoanApplication{}, err
	}
	if eligibilityScore < 0 || eligibilityScore > 100 {
		return LoanApplication{}, fmt.Errorf("eligibility score out of range: %d", eligibilityScore)
	}

	id := uuid.New().String()
	app := LoanApplication{
		id:                id,
		applicationNumber: applicationNumber,
		applicant:         applicant,
		status:            valueobject.StatusPendingRCPU,
		eligibilityScore:  eligibilityScore,
		estimatedEmi:      estimatedEmi,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}
	app.domainEvents = append(app.domainEvents, event.NewApplicationSubmitted(
		id, applicationNumber, applicant.LoanAmount, applicant.TenureYears,
		eligibilityScore, app.status.String(), now,
	))
	return app, nil
}

// ReconstructLoanApplication rebuilds an aggregate from persistence without side-effects.
func ReconstructLoanApplication(
	id, applicationNumber string,
	applicant Applicant,
	status valueobject.ApplicationStatus,
	eligibilityScore int,
	estimatedEmi decimal.Decimal,
	version int,
	createdAt, updatedAt time.Time,
) LoanApplication {
	return LoanApplication{
		id:                id,
		applicationNumber: applicationNumber,
		applicant:         applicant,
		status:            status,
		eligibilityScore:  eligibilityScore,
		estimatedEmi:      estimatedEmi,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// WithApplicationNumber swaps the human-readable number before the first
// save, after a collision with an existing application.
func (a LoanApplication) WithApplicationNumber(number string) LoanApplication {
	next := a
	next.applicationNumber = number
	next.domainEvents = nil
	for _, evt := range a.domainEvents {
		if submitted, ok := evt.(event.ApplicationSubmitted); ok {
			submitted.ApplicationNumber = number
			evt = submitted
		}
		next.domainEvents = append(next.domainEvents, evt)
	}
	return next
}

// ---------------------------------------------------------------------------
// State transitions (each returns a new copy)
// ---------------------------------------------------------------------------

// ApplyDecision moves the application to next as the outcome of entry.
func (a LoanApplication) ApplyDecision(
	entry ApprovalHistoryEntry,
	next valueobject.ApplicationStatus,
	now time.Time,
) (LoanApplication, error) {
	if entry.ApplicationID() != a.id {
		return a, fmt.Errorf("history entry belongs to application %s, not %s", entry.ApplicationID(), a.id)
	}
	moved, err := a.advance(next, now)
	if err != nil {
		return a, err
	}
	moved.domainEvents = append(moved.domainEvents, event.NewStageDecided(
		a.id, entry.Stage().String(), entry.Decision().String(),
		a.status.String(), next.String(), entry.ActorID(), entry.Remarks(), now,
	))
	return moved, nil
}

// Cancel withdraws the application. entry records who cancelled it.
func (a LoanApplication) Cancel(entry ApprovalHistoryEntry, now time.Time) (LoanApplication, error) {
	moved, err := a.advance(valueobject.StatusCancelled, now)
	if err != nil {
		return a, err
	}
	moved.domainEvents = append(moved.domainEvents, event.NewApplicationCancelled(
		a.id, a.status.String(), entry.ActorID(), entry.Remarks(), now,
	))
	return moved, nil
}

// Touch bumps the version without a status change, so that offer issuance
// is serialised with concurrent decisions on the same application.
func (a LoanApplication) Touch(now time.Time) LoanApplication {
	next := a
	next.version = a.version + 1
	next.updatedAt = now
	next.domainEvents = copyEvents(a.domainEvents)
	return next
}

// RecordEvent attaches an event raised on the application's behalf by a
// collaborator (offer issuance).
func (a LoanApplication) RecordEvent(evt event.DomainEvent) LoanApplication {
	next := a
	next.domainEvents = append(copyEvents(a.domainEvents), evt)
	return next
}

func (a LoanApplication) advance(next valueobject.ApplicationStatus, now time.Time) (LoanApplication, error) {
	if !a.status.CanAdvanceTo(next) {
		return a, fmt.Errorf("%s -> %s: %w", a.status, next, valueobject.ErrInvalidStatusTransition)
	}
	moved := a
	moved.status = next
	moved.version = a.version + 1
	moved.updatedAt = now
	moved.domainEvents = copyEvents(a.domainEvents)
	return moved, nil
}

// ---------------------------------------------------------------------------
// Domain events
// ---------------------------------------------------------------------------

func (a LoanApplication) DomainEvents() []event.DomainEvent {
	return copyEvents(a.domainEvents)
}

func (a LoanApplication) ClearEvents() LoanApplication {
	next := a
	next.domainEvents = nil
	return next
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (a LoanApplication) ID() string                            { return a.id }
func (a LoanApplication) ApplicationNumber() string             { return a.applicationNumber }
func (a LoanApplication) Applicant() Applicant                  { return a.applicant }
func (a LoanApplication) LoanAmount() decimal.Decimal           { return a.applicant.LoanAmount }
func (a LoanApplication) TenureYears() int                      { return a.applicant.TenureYears }
func (a LoanApplication) Status() valueobject.ApplicationStatus { return a.status }
func (a LoanApplication) EligibilityScore() int                 { return a.eligibilityScore }
func (a LoanApplication) EstimatedEmi() decimal.Decimal         { return a.estimatedEmi }
func (a LoanApplication) Version() int                          { return a.version }
func (a LoanApplication) CreatedAt() time.Time                  { return a.createdAt }
func (a LoanApplication) UpdatedAt() time.Time                  { return a.updatedAt }

// PreviousVersion is the stored version a changed copy must overwrite.
func (a LoanApplication) PreviousVersion() int { return a.version - 1 }

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}
