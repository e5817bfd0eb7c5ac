//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"testing"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/handler/dto/response"
	"venue-booking/internal/handler/middleware"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/commands"
	"venue-booking/tests/common/builder"
	"venue-booking/tests/common/dbtest"
	"venue-booking/tests/common/httptest"
	"venue-booking/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func TestBookingSuite(t *testing.T) {
	suite.Run(t, new(BookingSuite))
}

func (s *BookingSuite) submit(b *builder.BookingBuilder) (*response.SubmitBookingsResponse, int) {
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings", b.BuildRequestDTO())
	var body response.SubmitBookingsResponse
	if rec.Code == http.StatusCreated {
		s.Require().NoError(httptest.DecodeResponseBody(s.T(), rec.Body, &body))
		return &body, rec.Code
	}
	var errBody struct {
		Detail response.SubmitBookingsResponse `json:"detail"`
	}
	s.Require().NoError(httptest.DecodeResponseBody(s.T(), rec.Body, &errBody))
	return &errBody.Detail, rec.Code
}

func (s *BookingSuite) availability(date string) (map[string]bool, string) {
	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/availability?date="+date, nil)
	var body map[string]bool
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	return body, rec.Header().Get(middleware.DegradedHeader)
}

func (s *BookingSuite) TestPayLaterSubmission() {
	s.Run("confirms immediately and blocks the calendar", func() {
		body, code := s.submit(builder.NewBookingBuilder())

		s.Require().Equal(http.StatusCreated, code)
		s.Require().Len(body.Bookings, 1)
		s.Empty(body.Failures)
		got := body.Bookings[0]
		s.Equal(string(booking.StatusConfirmed), got.Status)
		s.Equal(string(booking.ConfirmedByPayLater), got.ConfirmedVia)
		s.NotEmpty(got.CalendarEventID)

		s.Equal(1, s.Calendar.Len())
		_, ok := s.Calendar.Get(got.CalendarEventID)
		s.True(ok)

		state := dbtest.LoadBookingState(s.T(), s.DB, got.ID)
		s.Equal(string(booking.StatusConfirmed), state.Status)
		s.Require().NotNil(state.CalendarEventID)
		s.Equal(got.CalendarEventID, *state.CalendarEventID)

		s.Equal(1, dbtest.CountJobs(s.T(), s.DB, commands.TopicCreated))
		s.Equal(1, dbtest.CountJobs(s.T(), s.DB, commands.TopicConfirmed))
	})

	s.Run("booked slots disappear from availability", func() {
		_, code := s.submit(builder.NewBookingBuilder())
		s.Require().Equal(http.StatusCreated, code)

		slots, degraded := s.availability("2025-03-10")
		s.Empty(degraded)
		s.True(slots["9:00 AM"])
		s.False(slots["10:00 AM"])
		s.False(slots["11:00 AM"])
		s.False(slots["12:00 PM"])
		s.True(slots["1:00 PM"])
	})

	s.Run("an overlapping request is rejected and left pending", func() {
		_, code := s.submit(builder.NewBookingBuilder())
		s.Require().Equal(http.StatusCreated, code)

		body, code := s.submit(builder.NewBookingBuilder().WithSlot("2025-03-10", "11:00 AM"))

		s.Equal(http.StatusConflict, code)
		s.Require().Len(body.Failures, 1)
		s.Require().Len(body.Bookings, 1)
		s.Equal(string(booking.StatusPendingPayment), body.Bookings[0].Status)
		s.Equal(1, s.Calendar.Len())

		state := dbtest.LoadBookingState(s.T(), s.DB, body.Bookings[0].ID)
		s.Equal(string(booking.StatusPendingPayment), state.Status)
		s.Nil(state.CalendarEventID)
		s.Require().NotNil(state.LastError)
	})

	s.Run("an existing calendar event blocks confirmation", func() {
		s.Calendar.Seed(calendar.RawEvent{
			Summary: "Private event",
			Start:   calendar.EventTime{DateTime: "2025-03-10T11:00:00-06:00"},
			End:     calendar.EventTime{DateTime: "2025-03-10T12:00:00-06:00"},
		})

		_, code := s.submit(builder.NewBookingBuilder())

		s.Equal(http.StatusConflict, code)
		s.Equal(1, s.Calendar.Len())
		s.Zero(dbtest.CountJobs(s.T(), s.DB, commands.TopicConfirmed))
	})

	s.Run("calendar write failure keeps the booking pending", func() {
		s.Calendar.FailWrites(errs.New("calendar quota exceeded"))

		body, code := s.submit(builder.NewBookingBuilder())

		s.Equal(http.StatusBadGateway, code)
		s.Require().Len(body.Bookings, 1)
		s.Zero(s.Calendar.Len())

		state := dbtest.LoadBookingState(s.T(), s.DB, body.Bookings[0].ID)
		s.Equal(string(booking.StatusPendingPayment), state.Status)
		s.Require().NotNil(state.LastError)
		s.Contains(*state.LastError, "calendar quota exceeded")
	})

	s.Run("multiple items are confirmed independently", func() {
		req := builder.NewBookingBuilder().BuildRequestDTO()
		second := builder.NewBookingBuilder().WithSlot("2025-03-11", "2:00 PM").BuildItemDTO()
		req.Items = append(req.Items, second)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings", req)

		var body response.SubmitBookingsResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Len(body.Bookings, 2)
		s.Equal(2, s.Calendar.Len())
	})
}

func (s *BookingSuite) TestIdempotentSubmission() {
	s.Run("a resubmitted form blocks the calendar once", func() {
		req := builder.NewBookingBuilder().BuildRequestDTO()
		headers := map[string]string{middleware.IdempotencyKeyHeader: uuid.NewString()}

		first := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/bookings", req, headers)
		var created response.SubmitBookingsResponse
		httptest.AssertSuccessResponse(s.T(), first, http.StatusCreated, &created)

		second := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/bookings", req, headers)
		var replayed response.SubmitBookingsResponse
		httptest.AssertSuccessResponse(s.T(), second, http.StatusOK, &replayed)

		s.Equal("true", second.Header().Get(middleware.ReplayedHeader))
		s.Require().Len(replayed.Bookings, 1)
		s.Equal(created.Bookings[0].ID, replayed.Bookings[0].ID)
		s.Equal(string(booking.StatusConfirmed), replayed.Bookings[0].Status)
		s.Equal(1, s.Calendar.Len())
		s.Equal(1, dbtest.CountJobs(s.T(), s.DB, commands.TopicCreated))
	})

	s.Run("the same key with another body is refused", func() {
		headers := map[string]string{middleware.IdempotencyKeyHeader: uuid.NewString()}
		first := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/bookings",
			builder.NewBookingBuilder().BuildRequestDTO(), headers)
		s.Require().Equal(http.StatusCreated, first.Code)

		rec := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/bookings",
			builder.NewBookingBuilder().WithSlot("2025-03-11", "2:00 PM").BuildRequestDTO(), headers)

		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "different request")
		s.Equal(1, s.Calendar.Len())
	})

	s.Run("a rejected request frees its key", func() {
		headers := map[string]string{middleware.IdempotencyKeyHeader: uuid.NewString()}
		invalid := builder.NewBookingBuilder().WithSlot("2025-03-10", "9:30 PM").BuildRequestDTO()

		rec := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/bookings", invalid, headers)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid booking")

		rec = httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, "/api/bookings",
			builder.NewBookingBuilder().BuildRequestDTO(), headers)
		s.Equal(http.StatusCreated, rec.Code)
	})
}

func (s *BookingSuite) TestCardBooking() {
	s.Run("stays pending until paid", func() {
		body, code := s.submit(builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard))

		s.Require().Equal(http.StatusCreated, code)
		s.Require().Len(body.Bookings, 1)
		s.Equal(string(booking.StatusPendingPayment), body.Bookings[0].Status)
		s.Positive(body.Bookings[0].FeeCents)
		s.Zero(s.Calendar.Len())
	})

	s.Run("payment is rejected while the processor is disabled", func() {
		body, _ := s.submit(builder.NewBookingBuilder().WithPaymentMethod(booking.PaymentCard))
		url := fmt.Sprintf("/api/bookings/%s/payments", body.Bookings[0].ID)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, map[string]string{"card_token": "tokn_test_1"})

		httptest.AssertErrorResponse(s.T(), rec, http.StatusServiceUnavailable, "Payment processing unavailable")
		state := dbtest.LoadBookingState(s.T(), s.DB, body.Bookings[0].ID)
		s.Equal(string(booking.StatusPendingPayment), state.Status)
	})
}

func (s *BookingSuite) TestGetAndCancel() {
	s.Run("returns a stored booking", func() {
		body, _ := s.submit(builder.NewBookingBuilder())

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/"+body.Bookings[0].ID.String(), nil)

		var got response.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal(body.Bookings[0].ID, got.ID)
		s.Equal("10:00 AM", got.Slot)
	})

	s.Run("unknown id is not found", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/"+uuid.NewString(), nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("cancel releases the slot", func() {
		body, _ := s.submit(builder.NewBookingBuilder())
		id := body.Bookings[0].ID
		url := fmt.Sprintf("/api/bookings/%s/cancel", id)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, nil)

		var got response.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &got)
		s.Equal(string(booking.StatusCancelled), got.Status)
		s.Zero(s.Calendar.Len())
		s.Equal(1, dbtest.CountJobs(s.T(), s.DB, commands.TopicCancelled))

		slots, _ := s.availability("2025-03-10")
		s.True(slots["10:00 AM"])

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, url, nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "")
	})
}

func (s *BookingSuite) TestAvailability() {
	s.Run("all slots are open on an empty calendar", func() {
		slots, degraded := s.availability("2025-03-12")
		s.Empty(degraded)
		s.Len(slots, 15)
		for label, open := range slots {
			s.True(open, label)
		}
	})

	s.Run("an all-day event closes the date", func() {
		s.Calendar.Seed(calendar.RawEvent{
			Summary: "Buyout",
			Start:   calendar.EventTime{Date: "2025-03-12"},
			End:     calendar.EventTime{Date: "2025-03-13"},
		})

		slots, _ := s.availability("2025-03-12")
		for label, open := range slots {
			s.False(open, label)
		}
	})

	s.Run("read failure serves a degraded answer", func() {
		s.Calendar.FailReads(errs.New("calendar timeout"))

		slots, degraded := s.availability("2025-03-12")
		s.Equal("true", degraded)
		s.Len(slots, 15)
	})

	s.Run("malformed date is rejected", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/availability?date=2025-3-12", nil)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid date format")
	})

	s.Run("the degraded header is exposed to browsers", func() {
		s.Calendar.FailReads(errs.New("calendar timeout"))

		rec := httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodGet, "/api/availability?date=2025-03-12", nil,
			map[string]string{"Origin": "http://localhost:3000"})

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Header().Get("Access-Control-Expose-Headers"), middleware.DegradedHeader)
	})
}

type FailClosedSuite struct {
	e2e.SharedSuite
}

func TestFailClosedSuite(t *testing.T) {
	s := new(FailClosedSuite)
	s.Mutate = func(cfg *config.Config) {
		cfg.Availability.Fallback = "closed"
	}
	suite.Run(t, s)
}

func (s *FailClosedSuite) TestAvailability() {
	s.Run("read failure is reported instead of guessed", func() {
		s.Calendar.FailReads(errs.New("calendar timeout"))

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/availability?date=2025-03-12", nil)

		httptest.AssertErrorResponse(s.T(), rec, http.StatusServiceUnavailable, "Calendar unavailable")
		s.Empty(rec.Header().Get(middleware.DegradedHeader))
	})

	s.Run("pay-later confirmation is refused without a re-check", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings", builder.NewBookingBuilder().BuildRequestDTO())
		s.Require().Equal(http.StatusCreated, rec.Code)

		s.Calendar.FailReads(errs.New("calendar timeout"))
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings",
			builder.NewBookingBuilder().WithSlot("2025-03-11", "10:00 AM").BuildRequestDTO())

		httptest.AssertErrorResponse(s.T(), rec, http.StatusServiceUnavailable, "Calendar unavailable")
		s.Equal(1, s.Calendar.Len())
	})
}
