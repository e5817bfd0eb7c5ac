package bootstrap

import (
	"context"
	"log/slog"

	"venue-booking/internal/infra/mq"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var MQModule = fx.Module("mq",
	fx.Provide(
		NewEventPublisher,
	),
)

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.EventPublisher, error) {
	if cfg.MQ.URL == "" {
		logger.Info("MQ_URL not set, booking events stay in the outbox")
		return mq.NoopPublisher{}, nil
	}

	pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})

	logger.Info("RabbitMQ publisher initialized", "exchange", cfg.MQ.Exchange)
	return pub, nil
}
