package port

import (
	"context"
	"time"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// ApplicationRepository persists applications and their approval history.
// Lookups of unknown IDs return an error matching valueobject.ErrNotFound.
type ApplicationRepository interface {
	// Create inserts a new application. A PAN or Aadhaar already on file
	// yields valueobject.ErrDuplicateIdentity; a taken application number
	// yields valueobject.ErrDuplicateNumber.
	Create(ctx context.Context, app model.LoanApplication) error
	FindByID(ctx context.Context, id string) (model.LoanApplication, error)
	FindByNumber(ctx context.Context, applicationNumber string) (model.LoanApplication, error)
	ListByStatus(ctx context.Context, status valueobject.ApplicationStatus) ([]model.LoanApplication, error)
	// SaveTransition writes the new status and appends entry in one
	// transaction, together with the application's pending events. It fails
	// with valueobject.ErrConcurrentModification if the stored version is no
	// longer app.PreviousVersion().
	SaveTransition(ctx context.Context, app model.LoanApplication, entry model.ApprovalHistoryEntry) error
	// ListHistory returns entries oldest first.
	ListHistory(ctx context.Context, applicationID string) ([]model.ApprovalHistoryEntry, error)
}

// OfferIssue is everything written when an offer is generated.
type OfferIssue struct {
	// Application carries a bumped version, and a new status when the
	// issuance also records the L3 approval.
	Application model.LoanApplication
	// Entry is set only when the status changed.
	Entry *model.ApprovalHistoryEntry
	Offer model.LoanOffer
	Rows  []model.EmiScheduleRow
}

// ScheduleRepository persists offers and EMI schedules.
type ScheduleRepository interface {
	// SaveOffer writes the offer, all rows and the application change in one
	// transaction. A second offer for the same application fails with
	// valueobject.ErrScheduleExists.
	SaveOffer(ctx context.Context, issue OfferIssue) error
	FindOffer(ctx context.Context, applicationID string) (model.LoanOffer, error)
	FindRow(ctx context.Context, rowID string) (model.EmiScheduleRow, error)
	// ListRows returns the schedule ordered by EMI number; empty when none
	// has been generated.
	ListRows(ctx context.Context, applicationID string) ([]model.EmiScheduleRow, error)
	// UpdateRow saves settlement fields and row events, guarded by the row
	// version.
	UpdateRow(ctx context.Context, row model.EmiScheduleRow) error
	// ListPendingDueBefore returns up to limit PENDING rows with due date
	// strictly before day.
	ListPendingDueBefore(ctx context.Context, day time.Time, limit int) ([]model.EmiScheduleRow, error)
}

// ActorDirectory resolves the staff taking decisions.
type ActorDirectory interface {
	FindByEmail(ctx context.Context, email string) (model.Actor, error)
	// Save inserts or replaces an actor keyed by email.
	Save(ctx context.Context, actor model.Actor) error
}
