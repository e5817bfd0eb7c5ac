//go:build unit

package commands_test

import (
	"context"
	"time"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/infra"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/shared"
	"venue-booking/tests/common/builder"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

const submitEndpoint = "POST /api/bookings"

// claim makes TryInsert report claimed and records the request hash it saw.
func (s *BookingCommandsTestSuite) claim(key uuid.UUID, claimed bool, hash *string) {
	s.keys.EXPECT().TryInsert(gomock.Any(), key, submitEndpoint, gomock.Any(), builder.FixedNow, builder.FixedNow.Add(24*time.Hour)).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, h string, _, _ time.Time) (bool, error) {
			*hash = h
			return claimed, nil
		})
}

func (s *BookingCommandsTestSuite) TestSubmitIdempotent() {
	ctx := context.Background()
	card := func() *builder.BookingBuilder {
		return builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard)
	}

	s.Run("first request completes the key with the created bookings", func() {
		s.passThrough()
		key := uuid.New()
		var hash string
		s.claim(key, true, &hash)

		var created *booking.Booking
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b *booking.Booking) error {
				created = b
				return nil
			})
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicCreated, gomock.Any(), gomock.Any()).Return(nil)
		s.keys.EXPECT().Complete(gomock.Any(), key, submitEndpoint, gomock.Any(), builder.FixedNow).DoAndReturn(
			func(_ context.Context, _ uuid.UUID, _ string, ids []uuid.UUID, _ time.Time) error {
				s.Equal([]uuid.UUID{created.ID()}, ids)
				return nil
			})

		result, err := s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), key)
		s.Require().NoError(err)

		s.False(result.Replayed)
		s.Require().Len(result.Bookings, 1)
		s.NotEmpty(hash)
	})

	s.Run("repeated request replays the stored bookings", func() {
		key := uuid.New()
		stored := card().MustBuildDomain()
		s.stored(stored)
		var hash string
		s.claim(key, false, &hash)
		s.keys.EXPECT().Get(gomock.Any(), key, submitEndpoint).DoAndReturn(
			func(context.Context, uuid.UUID, string) (*shared.IdempotencyRecord, error) {
				return &shared.IdempotencyRecord{
					Key:         key,
					RequestHash: hash,
					Status:      shared.IdempotencyCompleted,
					BookingIDs:  []uuid.UUID{stored.ID()},
				}, nil
			})

		result, err := s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), key)
		s.Require().NoError(err)

		s.True(result.Replayed)
		s.Require().Len(result.Bookings, 1)
		s.Equal(stored.ID(), result.Bookings[0].ID)
		s.Zero(s.cal.Len())
	})

	s.Run("same key with a different body is rejected", func() {
		key := uuid.New()
		var hash string
		s.claim(key, false, &hash)
		s.keys.EXPECT().Get(gomock.Any(), key, submitEndpoint).
			Return(&shared.IdempotencyRecord{Key: key, RequestHash: "other", Status: shared.IdempotencyCompleted}, nil)

		_, err := s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), key)

		s.True(errs.Is(err, commands.ErrIdempotencyKeyReused))
	})

	s.Run("key still processing", func() {
		key := uuid.New()
		var hash string
		s.claim(key, false, &hash)
		s.keys.EXPECT().Get(gomock.Any(), key, submitEndpoint).DoAndReturn(
			func(context.Context, uuid.UUID, string) (*shared.IdempotencyRecord, error) {
				return &shared.IdempotencyRecord{Key: key, RequestHash: hash, Status: shared.IdempotencyProcessing}, nil
			})

		_, err := s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), key)

		s.True(errs.Is(err, commands.ErrIdempotencyInProgress))
	})

	s.Run("key released between claim and read", func() {
		key := uuid.New()
		var hash string
		s.claim(key, false, &hash)
		s.keys.EXPECT().Get(gomock.Any(), key, submitEndpoint).
			Return(nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound))

		_, err := s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), key)

		s.True(errs.Is(err, commands.ErrIdempotencyInProgress))
	})

	s.Run("failed submission releases the key", func() {
		key := uuid.New()
		var hash string
		s.claim(key, true, &hash)
		s.keys.EXPECT().Release(gomock.Any(), key, submitEndpoint).Return(nil).Times(1)

		_, err := s.uc.SubmitIdempotent(ctx, card().WithSlot("2025-03-10", "9:30 PM").BuildRequestDTO(), key)

		s.True(errs.Is(err, commands.ErrDomainValidation))
	})

	s.Run("key store failure", func() {
		key := uuid.New()
		s.keys.EXPECT().TryInsert(gomock.Any(), key, submitEndpoint, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, infra.WrapRepoErr("failed to try insert idempotency key", errs.New("conn reset")))

		_, err := s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), key)

		s.True(errs.Is(err, commands.ErrIdempotencyCheckFailed))
	})

	s.Run("identical bodies hash identically", func() {
		first, second := uuid.New(), uuid.New()
		var h1, h2 string
		s.claim(first, false, &h1)
		s.claim(second, false, &h2)
		s.keys.EXPECT().Get(gomock.Any(), gomock.Any(), submitEndpoint).
			Return(&shared.IdempotencyRecord{Status: shared.IdempotencyProcessing}, nil).Times(2)

		_, _ = s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), first)
		_, _ = s.uc.SubmitIdempotent(ctx, card().BuildRequestDTO(), second)

		s.Equal(h1, h2)
	})
}

func (s *BookingCommandsTestSuite) TestPurgeIdempotencyKeys() {
	ctx := context.Background()

	s.Run("deletes keys past retention", func() {
		s.keys.EXPECT().DeleteExpired(gomock.Any(), builder.FixedNow).Return(int64(3), nil)

		n, err := s.uc.PurgeIdempotencyKeys(ctx)

		s.Require().NoError(err)
		s.Equal(int64(3), n)
	})

	s.Run("database failure", func() {
		s.keys.EXPECT().DeleteExpired(gomock.Any(), gomock.Any()).
			Return(int64(0), infra.WrapRepoErr("failed to delete expired idempotency keys", errs.New("conn reset")))

		_, err := s.uc.PurgeIdempotencyKeys(ctx)

		s.True(errs.Is(err, commands.ErrDatabaseOperationFailed))
	})
}
