package api

import (
	"net/http"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/handler/httperr"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// first match wins
var errorMappings = []errorMapping{
	{schedule.ErrInvalidDateFormat, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD"},
	{commands.ErrDomainValidation, http.StatusBadRequest, "Invalid booking"},
	{commands.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
	{commands.ErrSlotUnavailable, http.StatusConflict, "Time slot is no longer available"},
	{booking.ErrInvalidTransition, http.StatusConflict, "Booking cannot change to the requested status"},
	{shared.ErrLockHeld, http.StatusConflict, "Booking slot is being confirmed, retry shortly"},
	{commands.ErrIdempotencyInProgress, http.StatusConflict, "A request with this Idempotency-Key is still being processed"},
	{commands.ErrIdempotencyKeyReused, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request"},
	{commands.ErrPaymentDeclined, http.StatusPaymentRequired, "Payment declined"},
	{commands.ErrPaymentUnavailable, http.StatusServiceUnavailable, "Payment processing unavailable"},
	{commands.ErrConfirmationNotRecorded, http.StatusBadGateway, "Calendar event created but booking was not confirmed"},
	{shared.ErrCalendarWriteFailed, http.StatusBadGateway, "Failed to block the calendar for this booking"},
	{shared.ErrCalendarUnavailable, http.StatusServiceUnavailable, "Calendar unavailable"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errs.Is(err, m.target) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

func abortWithMapped(c *gin.Context, err error) {
	status, msg := statusFor(err)
	httperr.AbortWithError(c, status, err, msg, nil)
}
