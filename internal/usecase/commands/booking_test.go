//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/infra"
	"venue-booking/internal/infra/memcal"
	"venue-booking/internal/pkg/clock"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/shared"
	"venue-booking/tests/common/builder"
	sharedmock "venue-booking/tests/mock/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingCommandsTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	uow      *sharedmock.MockUnitOfWork
	tx       *sharedmock.MockTx
	repo     *sharedmock.MockBookingRepository
	outbox   *sharedmock.MockOutboxRepository
	keys     *sharedmock.MockIdempotencyRepository
	locker   *sharedmock.MockSlotLocker
	payments *sharedmock.MockPaymentGateway
	cal      *memcal.Calendar
	clock    *clock.MockClock
	loc      *time.Location
	uc       commands.BookingCommands
}

func TestBookingCommandsSuite(t *testing.T) {
	suite.Run(t, new(BookingCommandsTestSuite))
}

func (s *BookingCommandsTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.uow = sharedmock.NewMockUnitOfWork(s.ctrl)
	s.tx = sharedmock.NewMockTx(s.ctrl)
	s.repo = sharedmock.NewMockBookingRepository(s.ctrl)
	s.outbox = sharedmock.NewMockOutboxRepository(s.ctrl)
	s.keys = sharedmock.NewMockIdempotencyRepository(s.ctrl)
	s.locker = sharedmock.NewMockSlotLocker(s.ctrl)
	s.payments = sharedmock.NewMockPaymentGateway(s.ctrl)
	s.cal = memcal.New()
	s.clock = clock.NewMockClock(builder.FixedNow)
	s.loc = denver(s.T())

	s.uow.EXPECT().Bookings().Return(s.repo).AnyTimes()
	s.uow.EXPECT().Outbox().Return(s.outbox).AnyTimes()
	s.tx.EXPECT().Bookings().Return(s.repo).AnyTimes()
	s.tx.EXPECT().Outbox().Return(s.outbox).AnyTimes()
	s.uow.EXPECT().IdempotencyKeys().Return(s.keys).AnyTimes()
	s.tx.EXPECT().IdempotencyKeys().Return(s.keys).AnyTimes()
	s.locker.EXPECT().Acquire(gomock.Any(), "venue-booking:confirm:2025-03-10", 30*time.Second).
		Return(func(context.Context) {}, nil).AnyTimes()

	s.uc = s.newUseCase(commands.BookingPolicy{
		Currency:           "usd",
		PendingTTL:         48 * time.Hour,
		ExpiryBatch:        20,
		RecheckBeforeWrite: true,
		FailOpen:           true,
		LockTTL:            30 * time.Second,
	})
}

// SetupSubTest gives every s.Run case fresh mocks and an empty calendar.
func (s *BookingCommandsTestSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *BookingCommandsTestSuite) newUseCase(policy commands.BookingPolicy) commands.BookingCommands {
	b := builder.NewBookingBuilder()
	return commands.NewBookingUseCase(
		s.uow,
		b.Factory(),
		commands.NewBookingEventWriter(s.cal, testVenue(s.loc), 2, discardLogger()),
		s.cal,
		s.cal,
		calendar.NewResolver(s.loc),
		s.locker,
		s.payments,
		policy,
		s.clock,
		discardLogger(),
	)
}

func (s *BookingCommandsTestSuite) passThrough() {
	run := func(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
		return fn(ctx, s.tx)
	}
	s.uow.EXPECT().Within(gomock.Any(), gomock.Any()).DoAndReturn(run).AnyTimes()
	s.uow.EXPECT().WithinOnce(gomock.Any(), gomock.Any()).DoAndReturn(run).AnyTimes()
}

func (s *BookingCommandsTestSuite) stored(b *booking.Booking) {
	s.repo.EXPECT().FindByID(gomock.Any(), b.ID()).Return(b, nil).AnyTimes()
	s.repo.EXPECT().FindByIDForUpdate(gomock.Any(), b.ID()).Return(b, nil).AnyTimes()
}

func notFound() error {
	return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
}

// ================================================================================
// Confirm
// ================================================================================

func (s *BookingCommandsTestSuite) TestConfirm() {
	ctx := context.Background()

	s.Run("success: writes one blocking event and records it", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil).Times(1)
		s.outbox.EXPECT().Enqueue(gomock.Any(), "booking_event", commands.TopicConfirmed, gomock.Any(), builder.FixedNow).
			Return(nil).Times(1)

		view, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)
		s.Require().NoError(err)

		s.Equal(string(booking.StatusConfirmed), view.Status)
		s.Equal(string(booking.ConfirmedByPayLater), view.ConfirmedVia)
		s.Equal(1, s.cal.Len())
		s.Equal(b.CalendarEventID(), view.CalendarEventID)
		_, ok := s.cal.Get(view.CalendarEventID)
		s.True(ok)
	})

	s.Run("already confirmed: never writes a second event", func() {
		b := builder.NewBookingBuilder().BuildConfirmed("evt-1")
		s.stored(b)

		view, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayment)
		s.Require().NoError(err)

		s.Equal("evt-1", view.CalendarEventID)
		s.Equal(0, s.cal.Len())
	})

	s.Run("confirmed by a concurrent caller while waiting for the row lock", func() {
		s.passThrough()
		pending := builder.NewBookingBuilder().MustBuildDomain()
		snap := pending.Snapshot()
		locked := booking.Reconstruct(snap)
		s.Require().NoError(locked.Confirm("evt-other", booking.ConfirmedByPayment, builder.FixedNow))
		s.repo.EXPECT().FindByID(gomock.Any(), pending.ID()).Return(pending, nil)
		s.repo.EXPECT().FindByIDForUpdate(gomock.Any(), pending.ID()).Return(locked, nil)

		view, err := s.uc.Confirm(ctx, pending.ID(), booking.ConfirmedByPayLater)
		s.Require().NoError(err)

		s.Equal("evt-other", view.CalendarEventID)
		s.Equal(0, s.cal.Len())
	})

	s.Run("cancelled booking cannot be confirmed", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.Require().NoError(b.Cancel(builder.FixedNow))
		s.stored(b)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)
		s.True(errs.Is(err, booking.ErrInvalidTransition))
		s.Equal(0, s.cal.Len())
	})

	s.Run("unknown booking", func() {
		id := uuid.New()
		s.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, notFound())

		_, err := s.uc.Confirm(ctx, id, booking.ConfirmedByPayLater)
		s.True(errs.Is(err, commands.ErrBookingNotFound))
	})

	s.Run("calendar write failure leaves booking pending with last error", func() {
		s.passThrough()
		s.cal.FailWrites(errs.New("quota exceeded"))
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().SetLastError(gomock.Any(), b.ID(), gomock.Any(), builder.FixedNow).Return(nil).Times(1)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)
		s.Require().Error(err)

		s.True(errs.Is(err, shared.ErrCalendarWriteFailed))
		s.True(b.IsPending())
		s.Empty(b.CalendarEventID())
	})

	s.Run("re-check rejects an interval taken since availability was shown", func() {
		s.passThrough()
		s.cal.Seed(calendar.RawEvent{
			ID:    "walk-in",
			Start: calendar.EventTime{DateTime: "2025-03-10T12:00:00-06:00"},
			End:   calendar.EventTime{DateTime: "2025-03-10T13:00:00-06:00"},
		})
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().SetLastError(gomock.Any(), b.ID(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)

		s.True(errs.Is(err, commands.ErrSlotUnavailable))
		s.Equal(1, s.cal.Len())
		s.True(b.IsPending())
	})

	s.Run("re-check disabled writes without reading", func() {
		s.passThrough()
		s.uc = s.newUseCase(commands.BookingPolicy{LockTTL: 30 * time.Second})
		s.cal.FailReads(errs.New("reads should not happen"))
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicConfirmed, gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)
		s.Require().NoError(err)
		s.Equal(1, s.cal.Len())
	})

	s.Run("fail-closed re-check blocks confirmation when the calendar is down", func() {
		s.passThrough()
		s.uc = s.newUseCase(commands.BookingPolicy{RecheckBeforeWrite: true, LockTTL: 30 * time.Second})
		s.cal.FailReads(errs.New("connection refused"))
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().SetLastError(gomock.Any(), b.ID(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)

		s.True(errs.Is(err, shared.ErrCalendarUnavailable))
		s.Equal(0, s.cal.Len())
	})

	s.Run("update failure after write removes the event", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(infra.WrapRepoErr("failed to update booking", errs.New("conn reset")))
		s.repo.EXPECT().SetLastError(gomock.Any(), b.ID(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)

		s.True(errs.Is(err, commands.ErrConfirmationNotRecorded))
		s.Equal(0, s.cal.Len())
		s.Len(s.cal.Created(), 1)
	})

	s.Run("commit failure after write keeps the event for reconciliation", func() {
		s.uow.EXPECT().WithinOnce(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
				if err := fn(ctx, s.tx); err != nil {
					return err
				}
				return errs.Mark(errs.New("connection reset by peer"), shared.ErrTransactionCommit)
			})
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicConfirmed, gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)

		s.True(errs.Is(err, commands.ErrConfirmationNotRecorded))
		s.Equal(1, s.cal.Len())
	})

	s.Run("lock held by another confirmation", func() {
		s.locker = sharedmock.NewMockSlotLocker(s.ctrl)
		s.locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, shared.ErrLockHeld)
		s.uc = s.newUseCase(commands.BookingPolicy{LockTTL: time.Second})
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)

		_, err := s.uc.Confirm(ctx, b.ID(), booking.ConfirmedByPayLater)

		s.True(errs.Is(err, shared.ErrLockHeld))
		s.Equal(0, s.cal.Len())
	})
}

// ================================================================================
// Submit
// ================================================================================

func (s *BookingCommandsTestSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("pay later: every item is confirmed", func() {
		s.passThrough()
		req := builder.NewBookingBuilder().BuildRequestDTO()
		second := builder.NewBookingBuilder().WithSlot("2025-03-11", "2:00 PM").WithoutHours().BuildItemDTO()
		req.Items = append(req.Items, second)

		var created []*booking.Booking
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b *booking.Booking) error {
				created = append(created, b)
				s.stored(b)
				return nil
			}).Times(2)
		s.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicCreated, gomock.Any(), gomock.Any()).Return(nil).Times(2)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicConfirmed, gomock.Any(), gomock.Any()).Return(nil).Times(2)
		s.locker.EXPECT().Acquire(gomock.Any(), "venue-booking:confirm:2025-03-11", gomock.Any()).
			Return(func(context.Context) {}, nil)

		result, err := s.uc.Submit(ctx, req)
		s.Require().NoError(err)

		s.Empty(result.Failures)
		s.Require().Len(result.Bookings, 2)
		for _, v := range result.Bookings {
			s.Equal(string(booking.StatusConfirmed), v.Status)
		}
		s.Equal(2.0, result.Bookings[1].DurationHours)
		s.Equal(2, s.cal.Len())
	})

	s.Run("card: bookings stay pending until payment", func() {
		s.passThrough()
		req := builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard).BuildRequestDTO()
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicCreated, gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.uc.Submit(ctx, req)
		s.Require().NoError(err)

		s.Require().Len(result.Bookings, 1)
		s.Equal(string(booking.StatusPendingPayment), result.Bookings[0].Status)
		s.Equal(int64(39140), result.Bookings[0].TotalCents)
		s.Equal(0, s.cal.Len())
	})

	s.Run("pay later with calendar down reports the failed booking", func() {
		s.passThrough()
		s.cal.FailWrites(errs.New("401 unauthorized"))
		req := builder.NewBookingBuilder().BuildRequestDTO()
		s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b *booking.Booking) error {
				s.stored(b)
				return nil
			})
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicCreated, gomock.Any(), gomock.Any()).Return(nil)
		s.repo.EXPECT().SetLastError(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.uc.Submit(ctx, req)
		s.Require().NoError(err)

		s.Require().Len(result.Failures, 1)
		s.True(errs.Is(result.Failures[0].Err, shared.ErrCalendarWriteFailed))
		s.Equal(string(booking.StatusPendingPayment), result.Bookings[0].Status)
	})

	s.Run("invalid item rejects the whole request", func() {
		req := builder.NewBookingBuilder().BuildRequestDTO()
		req.Items = append(req.Items, builder.NewBookingBuilder().WithSlot("2025-03-10", "9:30 PM").BuildItemDTO())

		_, err := s.uc.Submit(ctx, req)

		s.True(errs.Is(err, commands.ErrDomainValidation))
	})

	s.Run("duration above the maximum is rejected", func() {
		req := builder.NewBookingBuilder().WithHours(12.5).BuildRequestDTO()

		_, err := s.uc.Submit(ctx, req)

		s.True(errs.Is(err, commands.ErrDomainValidation))
		s.True(errs.Is(err, booking.ErrInvalidDuration))
	})
}

// ================================================================================
// Payments
// ================================================================================

func (s *BookingCommandsTestSuite) TestPay() {
	ctx := context.Background()

	s.Run("succeeded charge confirms the booking", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard).MustBuildDomain()
		s.stored(b)
		s.payments.EXPECT().Charge(gomock.Any(), shared.ChargeRequest{
			BookingID:   b.ID(),
			AmountCents: 39140,
			Currency:    "usd",
			CardToken:   "tokn_test",
			Description: "Venue booking Yoga Workshop on 2025-03-10",
		}).Return(&shared.PaymentResult{ChargeID: "chrg_1", Status: shared.PaymentSucceeded, BookingID: b.ID()}, nil)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil).Times(2)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicConfirmed, gomock.Any(), gomock.Any()).Return(nil)

		outcome, err := s.uc.Pay(ctx, b.ID(), "tokn_test")
		s.Require().NoError(err)

		s.Equal(shared.PaymentSucceeded, outcome.Status)
		s.Equal(string(booking.ConfirmedByPayment), outcome.Booking.ConfirmedVia)
		s.Equal("chrg_1", b.ChargeID())
		s.Equal(1, s.cal.Len())
	})

	s.Run("pending charge waits for the webhook", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard).MustBuildDomain()
		s.stored(b)
		s.payments.EXPECT().Charge(gomock.Any(), gomock.Any()).
			Return(&shared.PaymentResult{ChargeID: "chrg_2", Status: shared.PaymentPending, BookingID: b.ID()}, nil)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)

		_, err := s.uc.Pay(ctx, b.ID(), "tokn_test")

		s.True(errs.Is(err, commands.ErrPaymentPending))
		s.True(b.IsPending())
		s.Equal(0, s.cal.Len())
	})

	s.Run("declined charge records the reason", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard).MustBuildDomain()
		s.stored(b)
		s.payments.EXPECT().Charge(gomock.Any(), gomock.Any()).
			Return(&shared.PaymentResult{ChargeID: "chrg_3", Status: shared.PaymentFailed, FailureMessage: "insufficient funds"}, nil)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.repo.EXPECT().SetLastError(gomock.Any(), b.ID(), "payment failed: insufficient funds", gomock.Any()).Return(nil)

		_, err := s.uc.Pay(ctx, b.ID(), "tokn_test")

		s.True(errs.Is(err, commands.ErrPaymentDeclined))
		s.Equal(0, s.cal.Len())
	})

	s.Run("payments disabled", func() {
		b := builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard).MustBuildDomain()
		s.stored(b)
		s.payments.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(nil, shared.ErrPaymentUnavailable)

		_, err := s.uc.Pay(ctx, b.ID(), "tokn_test")

		s.True(errs.Is(err, commands.ErrPaymentUnavailable))
	})

	s.Run("confirmed booking cannot be paid again", func() {
		b := builder.NewBookingBuilder().BuildConfirmed("evt-1")
		s.stored(b)

		_, err := s.uc.Pay(ctx, b.ID(), "tokn_test")

		s.True(errs.Is(err, booking.ErrInvalidTransition))
	})
}

func (s *BookingCommandsTestSuite) TestHandlePaymentEvent() {
	ctx := context.Background()

	s.Run("re-retrieved successful charge confirms the booking", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard).MustBuildDomain()
		b.AttachCharge("chrg_1", builder.FixedNow)
		s.stored(b)
		s.payments.EXPECT().Retrieve(gomock.Any(), "chrg_1").
			Return(&shared.PaymentResult{ChargeID: "chrg_1", Status: shared.PaymentSucceeded, BookingID: b.ID()}, nil)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicConfirmed, gomock.Any(), gomock.Any()).Return(nil)

		outcome, err := s.uc.HandlePaymentEvent(ctx, "chrg_1")
		s.Require().NoError(err)

		s.Equal(string(booking.StatusConfirmed), outcome.Booking.Status)
		s.Equal(1, s.cal.Len())
	})

	s.Run("duplicate delivery is a no-op", func() {
		b := builder.NewBookingBuilder().BuildConfirmed("evt-1")
		b.AttachCharge("chrg_1", builder.FixedNow)
		s.stored(b)
		s.payments.EXPECT().Retrieve(gomock.Any(), "chrg_1").
			Return(&shared.PaymentResult{ChargeID: "chrg_1", Status: shared.PaymentSucceeded, BookingID: b.ID()}, nil)

		outcome, err := s.uc.HandlePaymentEvent(ctx, "chrg_1")
		s.Require().NoError(err)

		s.Equal("evt-1", outcome.Booking.CalendarEventID)
		s.Equal(0, s.cal.Len())
	})

	s.Run("charge without booking reference", func() {
		s.payments.EXPECT().Retrieve(gomock.Any(), "chrg_x").
			Return(&shared.PaymentResult{ChargeID: "chrg_x", Status: shared.PaymentSucceeded}, nil)

		_, err := s.uc.HandlePaymentEvent(ctx, "chrg_x")

		s.True(errs.Is(err, commands.ErrBookingNotFound))
	})
}

// ================================================================================
// Cancel / Expire
// ================================================================================

func (s *BookingCommandsTestSuite) TestCancel() {
	ctx := context.Background()

	s.Run("confirmed booking releases its calendar event", func() {
		s.passThrough()
		start := time.Date(2025, 3, 10, 10, 0, 0, 0, s.loc)
		eventID, err := s.cal.CreateEvent(ctx, calendar.BlockingEvent{Start: start, End: start.Add(2 * time.Hour)})
		s.Require().NoError(err)
		b := builder.NewBookingBuilder().BuildConfirmed(eventID)
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicCancelled, gomock.Any(), gomock.Any()).Return(nil)

		view, err := s.uc.Cancel(ctx, b.ID())
		s.Require().NoError(err)

		s.Equal(string(booking.StatusCancelled), view.Status)
		s.Equal(0, s.cal.Len())
	})

	s.Run("pending booking has nothing to release", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicCancelled, gomock.Any(), gomock.Any()).Return(nil)

		view, err := s.uc.Cancel(ctx, b.ID())
		s.Require().NoError(err)
		s.Equal(string(booking.StatusCancelled), view.Status)
	})

	s.Run("event removal failure is recorded, cancellation stands", func() {
		s.passThrough()
		s.cal.FailDeletes(errs.New("503 backend error"))
		b := builder.NewBookingBuilder().BuildConfirmed("evt-9")
		s.stored(b)
		s.repo.EXPECT().Update(gomock.Any(), b).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.repo.EXPECT().SetLastError(gomock.Any(), b.ID(), gomock.Any(), gomock.Any()).Return(nil)

		view, err := s.uc.Cancel(ctx, b.ID())
		s.Require().NoError(err)

		s.Equal(string(booking.StatusCancelled), view.Status)
		s.Contains(view.LastError, "calendar event not removed")
	})

	s.Run("already cancelled", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().MustBuildDomain()
		s.Require().NoError(b.Cancel(builder.FixedNow))
		s.stored(b)

		_, err := s.uc.Cancel(ctx, b.ID())
		s.True(errs.Is(err, booking.ErrInvalidTransition))
	})
}

func (s *BookingCommandsTestSuite) TestExpirePending() {
	ctx := context.Background()

	s.Run("cancels bookings past the pending TTL", func() {
		s.passThrough()
		stale := builder.NewBookingBuilder().MustBuildDomain()
		s.stored(stale)
		s.clock.Set(builder.FixedNow.Add(49 * time.Hour))
		s.repo.EXPECT().ListExpiredPending(gomock.Any(), builder.FixedNow.Add(time.Hour), 20).
			Return([]uuid.UUID{stale.ID()}, nil)
		s.repo.EXPECT().Update(gomock.Any(), stale).Return(nil)
		s.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), commands.TopicExpired, gomock.Any(), gomock.Any()).Return(nil)

		n, err := s.uc.ExpirePending(ctx)
		s.Require().NoError(err)

		s.Equal(1, n)
		s.True(stale.IsCancelled())
	})

	s.Run("skips bookings confirmed since they were listed", func() {
		s.passThrough()
		b := builder.NewBookingBuilder().BuildConfirmed("evt-1")
		s.stored(b)
		s.clock.Set(builder.FixedNow.Add(49 * time.Hour))
		s.repo.EXPECT().ListExpiredPending(gomock.Any(), gomock.Any(), gomock.Any()).Return([]uuid.UUID{b.ID()}, nil)

		n, err := s.uc.ExpirePending(ctx)
		s.Require().NoError(err)

		s.Equal(0, n)
		s.True(b.IsConfirmed())
	})
}
