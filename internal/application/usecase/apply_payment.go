package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/service"
)

// ApplyPaymentUseCase records a payment against one schedule row.
type ApplyPaymentUseCase struct {
	schedules port.ScheduleRepository
	policy    service.LedgerPolicy
	clock     port.Clock
	logger    *slog.Logger
}

// NewApplyPaymentUseCase wires dependencies.
func NewApplyPaymentUseCase(
	schedules port.ScheduleRepository,
	policy service.LedgerPolicy,
	clock port.Clock,
	logger *slog.Logger,
) *ApplyPaymentUseCase {
	return &ApplyPaymentUseCase{
		schedules: schedules,
		policy:    policy,
		clock:     clock,
		logger:    logger,
	}
}

// Execute applies the payment as of today. The late fee is stored on the row
// and is not deducted from the amount paid.
func (uc *ApplyPaymentUseCase) Execute(
	ctx context.Context,
	req dto.ApplyPaymentRequest,
) (resp dto.ScheduleRowResponse, err error) {
	ctx, span := tracer.Start(ctx, "ApplyPayment")
	defer func() { endSpan(span, err) }()

	var paid model.EmiScheduleRow
	err = retryOnConflict(ctx, func() error {
		// 1. Load the row.
		row, err := uc.schedules.FindRow(ctx, req.RowID)
		if err != nil {
			return fmt.Errorf("find schedule row: %w", err)
		}

		// 2. Apply the payment.
		next, err := row.ApplyPayment(req.Amount, req.Remarks, uc.clock.Now(), uc.policy.DailyLateFee)
		if err != nil {
			return err
		}

		// 3. Persist under the row's version.
		if err := uc.schedules.UpdateRow(ctx, next); err != nil {
			return fmt.Errorf("update schedule row: %w", err)
		}
		paid = next
		return nil
	})
	if err != nil {
		return dto.ScheduleRowResponse{}, err
	}

	paymentsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", paid.Status().String())))
	uc.logger.InfoContext(ctx, "payment applied",
		"application_id", paid.ApplicationID(),
		"emi_number", paid.EmiNumber(),
		"amount", req.Amount.String(),
		"late_fee", paid.LateFee().String(),
		"status", paid.Status().String(),
	)
	return toRowResponse(paid), nil
}
