package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence"
	pkgpostgres "github.com/bibbank/loan-origination/pkg/postgres"
)

const rowColumns = `
	id, application_id, emi_number, due_date, emi_amount, principal_component,
	interest_component, outstanding_balance, status, paid_date, paid_amount,
	late_fee, remarks, version`

const offerColumns = `
	id, application_id, offer_letter_number, approved_amount, interest_rate,
	tenure_years, emi_amount, processing_fee, terms, issued_by, created_at`

// ScheduleRepo implements port.ScheduleRepository.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo creates a new repository backed by PostgreSQL.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// SaveOffer writes the application change, the optional L3 history row, the
// offer, every schedule row and the pending events in one transaction.
func (r *ScheduleRepo) SaveOffer(ctx context.Context, issue port.OfferIssue) error {
	err := pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateApplication(ctx, tx, issue.Application); err != nil {
			return err
		}
		if issue.Entry != nil {
			if err := insertHistory(ctx, tx, *issue.Entry); err != nil {
				return err
			}
		}

		o := issue.Offer
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_offers (`+offerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			o.ID(), o.ApplicationID(), o.OfferLetterNumber(), o.ApprovedAmount(), o.InterestRate(),
			o.TenureYears(), o.EmiAmount(), o.ProcessingFee(), o.Terms(), o.IssuedBy(), o.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("insert loan offer: %w", err)
		}

		if err := insertRows(ctx, tx, issue.Rows); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, issue.Application.DomainEvents())
	})
	if name, ok := pkgpostgres.UniqueViolation(err); ok {
		switch name {
		case constraintOfferLetterNumber:
			return valueobject.ErrDuplicateNumber
		case constraintOfferApplication, constraintScheduleEmi:
			return valueobject.ErrScheduleExists
		}
	}
	return err
}

func (r *ScheduleRepo) FindOffer(ctx context.Context, applicationID string) (model.LoanOffer, error) {
	notFound := valueobject.NotFound("offer for application %s", applicationID)
	if !isUUID(applicationID) {
		return model.LoanOffer{}, notFound
	}

	var (
		id, appID, letter, terms, issuedBy string
		approved, rate, emi, fee           decimal.Decimal
		tenure                             int
		createdAt                          time.Time
	)
	err := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM loan_offers WHERE application_id = $1`, applicationID).
		Scan(&id, &appID, &letter, &approved, &rate, &tenure, &emi, &fee, &terms, &issuedBy, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanOffer{}, notFound
	}
	if err != nil {
		return model.LoanOffer{}, fmt.Errorf("scan loan offer: %w", err)
	}
	return model.ReconstructLoanOffer(id, appID, letter, approved, rate, tenure, emi, fee, terms, issuedBy, createdAt), nil
}

func (r *ScheduleRepo) FindRow(ctx context.Context, rowID string) (model.EmiScheduleRow, error) {
	if !isUUID(rowID) {
		return model.EmiScheduleRow{}, valueobject.NotFound("emi row %s", rowID)
	}
	row, err := scanRow(r.pool.QueryRow(ctx, `SELECT `+rowColumns+` FROM emi_schedule WHERE id = $1`, rowID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.EmiScheduleRow{}, valueobject.NotFound("emi row %s", rowID)
	}
	return row, err
}

func (r *ScheduleRepo) ListRows(ctx context.Context, applicationID string) ([]model.EmiScheduleRow, error) {
	if !isUUID(applicationID) {
		return nil, nil
	}
	return r.queryRows(ctx,
		`SELECT `+rowColumns+` FROM emi_schedule WHERE application_id = $1 ORDER BY emi_number`,
		applicationID)
}

// UpdateRow saves the settlement fields under the row version guard.
func (r *ScheduleRepo) UpdateRow(ctx context.Context, row model.EmiScheduleRow) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		rec := persistence.NewRowRecord(row)
		tag, err := tx.Exec(ctx, `
			UPDATE emi_schedule
			SET status = $2, paid_date = $3, paid_amount = $4, late_fee = $5, remarks = $6, version = $7
			WHERE id = $1 AND version = $8`,
			rec.ID, rec.Status, rec.PaidDate, rec.PaidAmount, rec.LateFee, rec.Remarks, rec.Version,
			row.PreviousVersion(),
		)
		if err != nil {
			return fmt.Errorf("update emi row: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("emi row %s at version %d: %w", row.ID(), row.PreviousVersion(), valueobject.ErrConcurrentModification)
		}
		return insertOutbox(ctx, tx, row.DomainEvents())
	})
}

func (r *ScheduleRepo) ListPendingDueBefore(ctx context.Context, day time.Time, limit int) ([]model.EmiScheduleRow, error) {
	return r.queryRows(ctx, `
		SELECT `+rowColumns+`
		FROM emi_schedule
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date, application_id, emi_number
		LIMIT $3`,
		valueobject.EmiStatusPending.String(), model.DateOf(day), limit)
}

func (r *ScheduleRepo) queryRows(ctx context.Context, query string, args ...any) ([]model.EmiScheduleRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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

// insertRows queues every installment in one batch round trip.
func insertRows(ctx context.Context, tx pgx.Tx, rows []model.EmiScheduleRow) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		rec := persistence.NewRowRecord(row)
		batch.Queue(`
			INSERT INTO emi_schedule (`+rowColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			rec.ID, rec.ApplicationID, rec.EmiNumber, rec.DueDate, rec.EmiAmount, rec.Principal,
			rec.Interest, rec.OutstandingAfter, rec.Status, rec.PaidDate, rec.PaidAmount,
			rec.LateFee, rec.Remarks, rec.Version,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert emi row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("insert emi rows: %w", err)
	}
	return nil
}

func scanRow(s scannable) (model.EmiScheduleRow, error) {
	var rec persistence.RowRecord
	err := s.Scan(
		&rec.ID, &rec.ApplicationID, &rec.EmiNumber, &rec.DueDate, &rec.EmiAmount, &rec.Principal,
		&rec.Interest, &rec.OutstandingAfter, &rec.Status, &rec.PaidDate, &rec.PaidAmount,
		&rec.LateFee, &rec.Remarks, &rec.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.EmiScheduleRow{}, err
	}
	if err != nil {
		return model.EmiScheduleRow{}, fmt.Errorf("scan emi row: %w", err)
	}
	return rec.Row()
}

var _ port.ScheduleRepository = (*ScheduleRepo)(nil)
