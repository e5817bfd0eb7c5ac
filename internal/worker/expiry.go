package worker

import (
	"context"
	"log/slog"

	"venue-booking/internal/usecase/commands"
)

// PendingExpiry cancels bookings that never reached payment and drops
// idempotency keys past retention.
type PendingExpiry struct {
	commands commands.BookingCommands
	logger   *slog.Logger
}

func NewPendingExpiry(commands commands.BookingCommands, logger *slog.Logger) *PendingExpiry {
	return &PendingExpiry{commands: commands, logger: logger}
}

func (p *PendingExpiry) Tick(ctx context.Context) error {
	n, err := p.commands.ExpirePending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		p.logger.InfoContext(ctx, "Expired pending bookings", "count", n)
	}

	purged, err := p.commands.PurgeIdempotencyKeys(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		p.logger.InfoContext(ctx, "Purged idempotency keys", "count", purged)
	}
	return nil
}
