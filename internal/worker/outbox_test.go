//go:build unit

package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"venue-booking/internal/pkg/clock"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"
	"venue-booking/internal/worker"
	"venue-booking/tests/common/builder"
	sharedmock "venue-booking/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOutboxRelay(t *testing.T) {
	ctx := context.Background()
	policy := worker.OutboxPolicy{BatchSize: 20, MaxAttempts: 5, Backoff: time.Minute}

	setup := func(t *testing.T) (*worker.OutboxRelay, *sharedmock.MockOutboxRepository, *sharedmock.MockEventPublisher) {
		ctrl := gomock.NewController(t)
		uow := sharedmock.NewMockUnitOfWork(ctrl)
		tx := sharedmock.NewMockTx(ctrl)
		outbox := sharedmock.NewMockOutboxRepository(ctrl)
		publisher := sharedmock.NewMockEventPublisher(ctrl)

		tx.EXPECT().Outbox().Return(outbox).AnyTimes()
		uow.EXPECT().WithinOnce(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
				return fn(ctx, tx)
			})

		relay := worker.NewOutboxRelay(uow, publisher, policy, clock.NewMockClock(builder.FixedNow), discardLogger())
		return relay, outbox, publisher
	}

	t.Run("publishes and marks every claimed job", func(t *testing.T) {
		relay, outbox, publisher := setup(t)
		ok := shared.OutboxJob{ID: uuid.New(), Topic: "booking.confirmed", Payload: []byte(`{"a":1}`)}
		bad := shared.OutboxJob{ID: uuid.New(), Topic: "booking.cancelled", Payload: []byte(`{"b":2}`), Attempts: 2}

		outbox.EXPECT().ClaimBatch(gomock.Any(), builder.FixedNow, 20).Return([]shared.OutboxJob{ok, bad}, nil)
		publisher.EXPECT().Publish(gomock.Any(), "booking.confirmed", ok.Payload).Return(nil)
		publisher.EXPECT().Publish(gomock.Any(), "booking.cancelled", bad.Payload).Return(errs.New("channel closed"))
		outbox.EXPECT().MarkSent(gomock.Any(), ok.ID, builder.FixedNow).Return(nil)
		outbox.EXPECT().MarkFailed(gomock.Any(), bad.ID, "channel closed", builder.FixedNow.Add(3*time.Minute), 5).Return(nil)

		sent, failed, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, 1, failed)
	})

	t.Run("empty batch", func(t *testing.T) {
		relay, outbox, _ := setup(t)
		outbox.EXPECT().ClaimBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		sent, failed, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Zero(t, failed)
	})

	t.Run("claim failure aborts the batch", func(t *testing.T) {
		relay, outbox, _ := setup(t)
		boom := errs.New("db down")
		outbox.EXPECT().ClaimBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

		_, _, err := relay.RunOnce(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
