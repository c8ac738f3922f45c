// Package scheduler runs the periodic in-process jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/bibbank/loan-origination/internal/application/dto"
)

// OverdueMarker runs one overdue sweep.
type OverdueMarker interface {
	Execute(ctx context.Context, req dto.MarkOverdueRequest) (dto.MarkOverdueResponse, error)
}

// OverdueSweeper triggers the overdue sweep on a fixed interval. The sweep
// is idempotent, so an interval shorter than a day only costs a query.
type OverdueSweeper struct {
	marker   OverdueMarker
	interval time.Duration
	logger   *slog.Logger
}

func NewOverdueSweeper(marker OverdueMarker, interval time.Duration, logger *slog.Logger) *OverdueSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueSweeper{marker: marker, interval: interval, logger: logger}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *OverdueSweeper) Run(ctx context.Context) {
	s.logger.Info("overdue sweeper starting", "interval", s.interval.String())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("overdue sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	if _, err := s.marker.Execute(ctx, dto.MarkOverdueRequest{}); err != nil && ctx.Err() == nil {
		s.logger.Error("overdue sweep failed", "error", err)
	}
}
