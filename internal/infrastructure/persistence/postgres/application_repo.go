package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence"
	pkgpostgres "github.com/bibbank/loan-origination/pkg/postgres"
)

// Unique constraints from the init migration, mapped to domain errors.
const (
	constraintApplicationNumber  = "loan_applications_number_key"
	constraintApplicationPAN     = "loan_applications_pan_key"
	constraintApplicationAadhaar = "loan_applications_aadhaar_key"
	constraintOfferApplication   = "loan_offers_application_key"
	constraintOfferLetterNumber  = "loan_offers_letter_number_key"
	constraintScheduleEmi        = "emi_schedule_application_emi_key"
)

const applicationColumns = `
	id, application_number, full_name, date_of_birth, gender, marital_status,
	pan, aadhaar, email, phone, address, city, state, pincode, residence_type,
	employment_type, employer_name, monthly_income, work_experience_years,
	loan_amount, tenure_years, purpose, property_address, property_value,
	co_applicant, status, eligibility_score, estimated_emi, version,
	created_at, updated_at`

// ApplicationRepo implements port.ApplicationRepository.
type ApplicationRepo struct {
	pool *pgxpool.Pool
}

// NewApplicationRepo creates a new repository backed by PostgreSQL.
func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

// Create inserts the application and its submission event.
func (r *ApplicationRepo) Create(ctx context.Context, app model.LoanApplication) error {
	rec, err := persistence.NewApplicationRecord(app)
	if err != nil {
		return err
	}

	err = pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_applications (`+applicationColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,
			        $17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31)`,
			rec.ID, rec.ApplicationNumber, rec.FullName, rec.DateOfBirth, rec.Gender, rec.MaritalStatus,
			rec.PAN, rec.Aadhaar, rec.Email, rec.Phone, rec.Address, rec.City, rec.State, rec.Pincode, rec.ResidenceType,
			rec.EmploymentType, rec.EmployerName, rec.MonthlyIncome, rec.WorkExperienceYears,
			rec.LoanAmount, rec.TenureYears, rec.Purpose, rec.PropertyAddress, rec.PropertyValue,
			rec.CoApplicant, rec.Status, rec.EligibilityScore, rec.EstimatedEmi, rec.Version,
			rec.CreatedAt, rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert loan application: %w", err)
		}
		return insertOutbox(ctx, tx, app.DomainEvents())
	})
	if name, ok := pkgpostgres.UniqueViolation(err); ok {
		switch name {
		case constraintApplicationNumber:
			return valueobject.ErrDuplicateNumber
		case constraintApplicationPAN, constraintApplicationAadhaar:
			return valueobject.ErrDuplicateIdentity
		}
	}
	return err
}

func (r *ApplicationRepo) FindByID(ctx context.Context, id string) (model.LoanApplication, error) {
	if !isUUID(id) {
		return model.LoanApplication{}, valueobject.NotFound("application %s", id)
	}
	app, err := scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanApplication{}, valueobject.NotFound("application %s", id)
	}
	return app, err
}

func (r *ApplicationRepo) FindByNumber(ctx context.Context, applicationNumber string) (model.LoanApplication, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE application_number = $1`, applicationNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanApplication{}, valueobject.NotFound("application %s", applicationNumber)
	}
	return app, err
}

// ListByStatus returns applications in status, oldest first.
func (r *ApplicationRepo) ListByStatus(ctx context.Context, status valueobject.ApplicationStatus) ([]model.LoanApplication, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE status = $1 ORDER BY created_at, id`,
		status.String())
	if err != nil {
		return nil, fmt.Errorf("query loan applications: %w", err)
	}
	defer rows.Close()

	var result []model.LoanApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

// SaveTransition updates the status under the version guard, then appends
// the history row and outbox entries in the same transaction.
func (r *ApplicationRepo) SaveTransition(ctx context.Context, app model.LoanApplication, entry model.ApprovalHistoryEntry) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateApplication(ctx, tx, app); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, app.DomainEvents())
	})
}

// ListHistory returns entries oldest first; seq breaks timestamp ties.
func (r *ApplicationRepo) ListHistory(ctx context.Context, applicationID string) ([]model.ApprovalHistoryEntry, error) {
	if !isUUID(applicationID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, application_id, actor_id, actor_email, stage, decision, remarks, created_at
		FROM approval_history
		WHERE application_id = $1
		ORDER BY created_at, seq`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query approval history: %w", err)
	}
	defer rows.Close()

	var result []model.ApprovalHistoryEntry
	for rows.Next() {
		var rec historyRow
		if err := rows.Scan(&rec.id, &rec.applicationID, &rec.actorID, &rec.actorEmail,
			&rec.stage, &rec.decision, &rec.remarks, &rec.createdAt); err != nil {
			return nil, fmt.Errorf("scan approval history: %w", err)
		}
		entry, err := rec.entry()
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// ---------------------------------------------------------------------------
// tx helpers shared with ScheduleRepo
// ---------------------------------------------------------------------------

func updateApplication(ctx context.Context, q pkgpostgres.Querier, app model.LoanApplication) error {
	tag, err := q.Exec(ctx, `
		UPDATE loan_applications
		SET status = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $5`,
		app.ID(), app.Status().String(), app.Version(), app.UpdatedAt(), app.PreviousVersion(),
	)
	if err != nil {
		return fmt.Errorf("update loan application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application %s at version %d: %w", app.ID(), app.PreviousVersion(), valueobject.ErrConcurrentModification)
	}
	return nil
}

func insertHistory(ctx context.Context, q pkgpostgres.Querier, e model.ApprovalHistoryEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO approval_history (id, application_id, actor_id, actor_email, stage, decision, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID(), e.ApplicationID(), e.ActorID(), e.ActorEmail(),
		e.Stage().String(), e.Decision().String(), e.Remarks(), e.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert approval history: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// scan helpers
// ---------------------------------------------------------------------------

// isUUID guards id columns: a malformed id is a miss, not a cast error.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanApplication(s scannable) (model.LoanApplication, error) {
	var rec persistence.ApplicationRecord
	err := s.Scan(
		&rec.ID, &rec.ApplicationNumber, &rec.FullName, &rec.DateOfBirth, &rec.Gender, &rec.MaritalStatus,
		&rec.PAN, &rec.Aadhaar, &rec.Email, &rec.Phone, &rec.Address, &rec.City, &rec.State, &rec.Pincode, &rec.ResidenceType,
		&rec.EmploymentType, &rec.EmployerName, &rec.MonthlyIncome, &rec.WorkExperienceYears,
		&rec.LoanAmount, &rec.TenureYears, &rec.Purpose, &rec.PropertyAddress, &rec.PropertyValue,
		&rec.CoApplicant, &rec.Status, &rec.EligibilityScore, &rec.EstimatedEmi, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanApplication{}, err
	}
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("scan loan application: %w", err)
	}
	return rec.Application()
}

type historyRow struct {
	id, applicationID, actorID, actorEmail string
	stage, decision, remarks               string
	createdAt                              time.Time
}

func (h historyRow) entry() (model.ApprovalHistoryEntry, error) {
	return persistence.HistoryEntry(h.id, h.applicationID, h.actorID, h.actorEmail, h.stage, h.decision, h.remarks, h.createdAt)
}

var _ port.ApplicationRepository = (*ApplicationRepo)(nil)
