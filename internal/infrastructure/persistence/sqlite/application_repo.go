package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence"
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
	db *sql.DB
}

func (r *ApplicationRepo) Create(ctx context.Context, app model.LoanApplication) error {
	rec, err := persistence.NewApplicationRecord(app)
	if err != nil {
		return err
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO loan_applications (`+applicationColumns+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, rec.ApplicationNumber, rec.FullName, rec.DateOfBirth, rec.Gender, rec.MaritalStatus,
			rec.PAN, rec.Aadhaar, rec.Email, rec.Phone, rec.Address, rec.City, rec.State, rec.Pincode, rec.ResidenceType,
			rec.EmploymentType, rec.EmployerName, rec.MonthlyIncome, rec.WorkExperienceYears,
			rec.LoanAmount, rec.TenureYears, rec.Purpose, rec.PropertyAddress, rec.PropertyValue,
			rec.CoApplicant, rec.Status, rec.EligibilityScore, rec.EstimatedEmi, rec.Version,
			utc(rec.CreatedAt), utc(rec.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert loan application: %w", err)
		}
		return insertOutbox(ctx, tx, app.DomainEvents())
	})
	if cols, ok := uniqueViolation(err); ok {
		switch {
		case strings.Contains(cols, "loan_applications.application_number"):
			return valueobject.ErrDuplicateNumber
		case strings.Contains(cols, "loan_applications.pan"), strings.Contains(cols, "loan_applications.aadhaar"):
			return valueobject.ErrDuplicateIdentity
		}
	}
	return err
}

func (r *ApplicationRepo) FindByID(ctx context.Context, id string) (model.LoanApplication, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LoanApplication{}, valueobject.NotFound("application %s", id)
	}
	return app, err
}

func (r *ApplicationRepo) FindByNumber(ctx context.Context, applicationNumber string) (model.LoanApplication, error) {
	app, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE application_number = ?`, applicationNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return model.LoanApplication{}, valueobject.NotFound("application %s", applicationNumber)
	}
	return app, err
}

func (r *ApplicationRepo) ListByStatus(ctx context.Context, status valueobject.ApplicationStatus) ([]model.LoanApplication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM loan_applications WHERE status = ? ORDER BY created_at, id`,
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

func (r *ApplicationRepo) SaveTransition(ctx context.Context, app model.LoanApplication, entry model.ApprovalHistoryEntry) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateApplication(ctx, tx, app); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, entry); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, app.DomainEvents())
	})
}

func (r *ApplicationRepo) ListHistory(ctx context.Context, applicationID string) ([]model.ApprovalHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, application_id, actor_id, actor_email, stage, decision, remarks, created_at
		FROM approval_history
		WHERE application_id = ?
		ORDER BY created_at, seq`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query approval history: %w", err)
	}
	defer rows.Close()

	var result []model.ApprovalHistoryEntry
	for rows.Next() {
		var (
			id, appID, actorID, actorEmail, stage, decision, remarks string
			createdAt                                                time.Time
		)
		if err := rows.Scan(&id, &appID, &actorID, &actorEmail, &stage, &decision, &remarks, &createdAt); err != nil {
			return nil, fmt.Errorf("scan approval history: %w", err)
		}
		entry, err := persistence.HistoryEntry(id, appID, actorID, actorEmail, stage, decision, remarks, createdAt)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func updateApplication(ctx context.Context, q execer, app model.LoanApplication) error {
	res, err := q.ExecContext(ctx, `
		UPDATE loan_applications
		SET status = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		app.Status().String(), app.Version(), utc(app.UpdatedAt()), app.ID(), app.PreviousVersion(),
	)
	if err != nil {
		return fmt.Errorf("update loan application: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return fmt.Errorf("application %s at version %d: %w", app.ID(), app.PreviousVersion(), valueobject.ErrConcurrentModification)
	}
	return nil
}

func insertHistory(ctx context.Context, q execer, e model.ApprovalHistoryEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO approval_history (id, application_id, actor_id, actor_email, stage, decision, remarks, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID(), e.ApplicationID(), e.ActorID(), e.ActorEmail(),
		e.Stage().String(), e.Decision().String(), e.Remarks(), utc(e.CreatedAt()),
	)
	if err != nil {
		return fmt.Errorf("insert approval history: %w", err)
	}
	return nil
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
	if errors.Is(err, sql.ErrNoRows) {
		return model.LoanApplication{}, err
	}
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("scan loan application: %w", err)
	}
	return rec.Application()
}

var _ port.ApplicationRepository = (*ApplicationRepo)(nil)
