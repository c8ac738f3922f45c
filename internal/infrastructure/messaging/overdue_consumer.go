package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bibbank/loan-origination/internal/application/dto"
	pkgkafka "github.com/bibbank/loan-origination/pkg/kafka"
)

// CommandMarkOverdue asks the service to run an overdue sweep.
const CommandMarkOverdue = "mark_overdue"

// OverdueMarker runs the sweep; satisfied by *usecase.MarkOverdueUseCase.
type OverdueMarker interface {
	Execute(ctx context.Context, req dto.MarkOverdueRequest) (dto.MarkOverdueResponse, error)
}

// Command is the payload on the commands topic. The sweep always runs as of
// the service clock; extra fields are ignored.
type Command struct {
	Command string `json:"command"`
}

// NewOverdueCommandHandler returns a consumer handler that triggers the
// sweep. Unknown or malformed commands are logged and acknowledged so they
// do not block the partition.
func NewOverdueCommandHandler(marker OverdueMarker, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		var cmd Command
		if err := json.Unmarshal(msg.Value, &cmd); err != nil {
			logger.Warn("dropping malformed command", "error", err)
			return nil
		}
		if !strings.EqualFold(cmd.Command, CommandMarkOverdue) {
			logger.Debug("ignoring command", "command", cmd.Command)
			return nil
		}

		resp, err := marker.Execute(ctx, dto.MarkOverdueRequest{})
		if err != nil {
			return fmt.Errorf("mark overdue: %w", err)
		}
		logger.Info("overdue command handled", "as_of", resp.AsOf, "flipped", resp.Flipped)
		return nil
	}
}
