package lock

import (
	"context"
	"log/slog"
	"time"

	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type RedisLocker struct {
	client *redis.Client
	token  func() string
	logger *slog.Logger
}

func NewRedisLocker(client *redis.Client, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{client: client, token: uuid.NewString, logger: logger}
}

// WithTokenSource replaces the random lock token. Tests use it to make
// commands predictable.
func (l *RedisLocker) WithTokenSource(token func() string) *RedisLocker {
	l.token = token
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error) {
	token := l.token()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, errs.Wrapf(err, "acquire lock %s", key)
	}
	if !ok {
		return nil, errs.Wrapf(shared.ErrLockHeld, "key %s", key)
	}

	release := func(ctx context.Context) {
		n, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
		if err != nil {
			l.logger.WarnContext(ctx, "Failed to release lock", "key", key, "error", err.Error())
			return
		}
		if n == 0 {
			l.logger.WarnContext(ctx, "Lock expired before release", "key", key, "ttl", ttl.String())
		}
	}
	return release, nil
}

// NoopLocker is used when REDIS_ADDR is empty; the row lock is the only guard.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(context.Context), error) {
	return func(context.Context) {}, nil
}
