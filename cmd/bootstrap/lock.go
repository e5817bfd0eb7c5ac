package bootstrap

import (
	"context"
	"log/slog"

	"venue-booking/internal/infra/lock"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var LockModule = fx.Module("lock",
	fx.Provide(
		NewSlotLocker,
	),
)

func NewSlotLocker(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.SlotLocker, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set, confirmation lock disabled")
		return lock.NoopLocker{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return lock.NewRedisLocker(client, logger), nil
}
