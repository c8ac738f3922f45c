package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence"
)

const rowColumns = `
	id, application_id, emi_number, due_date, emi_amount, principal_component,
	interest_component, outstanding_balance, status, paid_date, paid_amount,
	late_fee, remarks, version`

// ScheduleRepo implements port.ScheduleRepository.
type ScheduleRepo struct {
	db *sql.DB
}

func (r *ScheduleRepo) SaveOffer(ctx context.Context, issue port.OfferIssue) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateApplication(ctx, tx, issue.Application); err != nil {
			return err
		}
		if issue.Entry != nil {
			if err := insertHistory(ctx, tx, *issue.Entry); err != nil {
				return err
			}
		}

		o := issue.Offer
		_, err := tx.ExecContext(ctx, `
			INSERT INTO loan_offers (
				id, application_id, offer_letter_number, approved_amount, interest_rate,
				tenure_years, emi_amount, processing_fee, terms, issued_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID(), o.ApplicationID(), o.OfferLetterNumber(), o.ApprovedAmount(), o.InterestRate(),
			o.TenureYears(), o.EmiAmount(), o.ProcessingFee(), o.Terms(), o.IssuedBy(), utc(o.CreatedAt()),
		)
		if err != nil {
			return fmt.Errorf("insert loan offer: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO emi_schedule (`+rowColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare emi insert: %w", err)
		}
		defer stmt.Close()
		for _, row := range issue.Rows {
			rec := persistence.NewRowRecord(row)
			if _, err := stmt.ExecContext(ctx,
				rec.ID, rec.ApplicationID, rec.EmiNumber, rec.DueDate, rec.EmiAmount, rec.Principal,
				rec.Interest, rec.OutstandingAfter, rec.Status, rec.PaidDate, rec.PaidAmount,
				rec.LateFee, rec.Remarks, rec.Version,
			); err != nil {
				return fmt.Errorf("insert emi row %d: %w", rec.EmiNumber, err)
			}
		}

		return insertOutbox(ctx, tx, issue.Application.DomainEvents())
	})
	if cols, ok := uniqueViolation(err); ok {
		switch {
		case strings.Contains(cols, "loan_offers.offer_letter_number"):
			return valueobject.ErrDuplicateNumber
		case strings.Contains(cols, "loan_offers.application_id"), strings.Contains(cols, "emi_schedule.application_id"):
			return valueobject.ErrScheduleExists
		}
	}
	return err
}

func (r *ScheduleRepo) FindOffer(ctx context.Context, applicationID string) (model.LoanOffer, error) {
	var (
		id, appID, letter, terms, issuedBy string
		approved, rate, emi, fee           decimal.Decimal
		tenure                             int
		createdAt                          time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, application_id, offer_letter_number, approved_amount, interest_rate,
		       tenure_years, emi_amount, processing_fee, terms, issued_by, created_at
		FROM loan_offers WHERE application_id = ?`, applicationID).
		Scan(&id, &appID, &letter, &approved, &rate, &tenure, &emi, &fee, &terms, &issuedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LoanOffer{}, valueobject.NotFound("offer for application %s", applicationID)
	}
	if err != nil {
		return model.LoanOffer{}, fmt.Errorf("scan loan offer: %w", err)
	}
	return model.ReconstructLoanOffer(id, appID, letter, approved, rate, tenure, emi, fee, terms, issuedBy, createdAt), nil
}

func (r *ScheduleRepo) FindRow(ctx context.Context, rowID string) (model.EmiScheduleRow, error) {
	row, err := scanRow(r.db.QueryRowContext(ctx, `SELECT `+rowColumns+` FROM emi_schedule WHERE id = ?`, rowID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmiScheduleRow{}, valueobject.NotFound("emi row %s", rowID)
	}
	return row, err
}

func (r *ScheduleRepo) ListRows(ctx context.Context, applicationID string) ([]model.EmiScheduleRow, error) {
	return r.queryRows(ctx,
		`SELECT `+rowColumns+` FROM emi_schedule WHERE application_id = ? ORDER BY emi_number`,
		applicationID)
}

func (r *ScheduleRepo) UpdateRow(ctx context.Context, row model.EmiScheduleRow) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		rec := persistence.NewRowRecord(row)
		res, err := tx.ExecContext(ctx, `
			UPDATE emi_schedule
			SET status = ?, paid_date = ?, paid_amount = ?, late_fee = ?, remarks = ?, version = ?
			WHERE id = ? AND version = ?`,
			rec.Status, rec.PaidDate, rec.PaidAmount, rec.LateFee, rec.Remarks, rec.Version,
			rec.ID, row.PreviousVersion(),
		)
		if err != nil {
			return fmt.Errorf("update emi row: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return fmt.Errorf("emi row %s at version %d: %w", row.ID(), row.PreviousVersion(), valueobject.ErrConcurrentModification)
		}
		return insertOutbox(ctx, tx, row.DomainEvents())
	})
}

func (r *ScheduleRepo) ListPendingDueBefore(ctx context.Context, day time.Time, limit int) ([]model.EmiScheduleRow, error) {
	return r.queryRows(ctx, `
		SELECT `+rowColumns+`
		FROM emi_schedule
		WHERE status = ? AND due_date < ?
		ORDER BY due_date, application_id, emi_number
		LIMIT ?`,
		valueobject.EmiStatusPending.String(), model.DateOf(day), limit)
}

func (r *ScheduleRepo) queryRows(ctx context.Context, query string, args ...any) ([]model.EmiScheduleRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emi schedule: %w", err)
	}
	defer rows.Close()

	var result []model.EmiScheduleRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func scanRow(s scannable) (model.EmiScheduleRow, error) {
	var (
		rec  persistence.RowRecord
		paid sql.NullTime
	)
	err := s.Scan(
		&rec.ID, &rec.ApplicationID, &rec.EmiNumber, &rec.DueDate, &rec.EmiAmount, &rec.Principal,
		&rec.Interest, &rec.OutstandingAfter, &rec.Status, &paid, &rec.PaidAmount,
		&rec.LateFee, &rec.Remarks, &rec.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmiScheduleRow{}, err
	}
	if err != nil {
		return model.EmiScheduleRow{}, fmt.Errorf("scan emi row: %w", err)
	}
	if paid.Valid {
		rec.PaidDate = &paid.Time
	}
	return rec.Row()
}

var _ port.ScheduleRepository = (*ScheduleRepo)(nil)
