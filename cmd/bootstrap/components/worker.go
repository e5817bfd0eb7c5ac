package components

import (
	"context"
	"log/slog"

	"venue-booking/internal/pkg/config"
	"venue-booking/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		func(cfg config.Config) worker.OutboxPolicy {
			return worker.OutboxPolicy{
				BatchSize:   cfg.Outbox.BatchSize,
				MaxAttempts: cfg.Outbox.MaxAttempts,
				Backoff:     cfg.Outbox.PollInterval,
			}
		},
		worker.NewOutboxRelay,
		worker.NewPendingExpiry,
	),
	fx.Invoke(StartWorkers),
)

func StartWorkers(
	lc fx.Lifecycle,
	cfg config.Config,
	relay *worker.OutboxRelay,
	expiry *worker.PendingExpiry,
	logger *slog.Logger,
) {
	loops := []*worker.Loop{
		worker.NewLoop("outbox-relay", cfg.Outbox.PollInterval, relay.Tick, logger),
		worker.NewLoop("pending-expiry", cfg.Booking.ExpiryInterval, expiry.Tick, logger),
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			for _, l := range loops {
				l.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			for _, l := range loops {
				if err := l.Stop(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})
}
