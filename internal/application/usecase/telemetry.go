package usecase

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/bibbank/loan-origination/internal/application/usecase"

// Instruments resolve through the global providers, so they start reporting
// once observability.InitMetrics and InitTracer have run.
var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	submissionsTotal = counter("origination.applications.submitted", "Applications accepted.")
	decisionsTotal   = counter("origination.stage.decisions", "Stage decisions applied, by stage and recorded decision.")
	offersTotal      = counter("origination.offers.issued", "Offers issued with a schedule.")
	paymentsTotal    = counter("origination.emi.payments", "Payments applied to schedule rows, by resulting status.")
	overdueTotal     = counter("origination.emi.overdue", "Rows flipped to OVERDUE.")
	conflictsTotal   = counter("origination.optimistic.conflicts", "Optimistic version conflicts seen before retrying.")
)

func counter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		otel.Handle(err)
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
