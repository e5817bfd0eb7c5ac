package commands

import (
	"context"
	"log/slog"
	"time"

	"venue-booking/internal/domain/booking"
	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("venue-booking/usecase/commands")

// BookingEventWriter materializes a confirmed booking as one blocking
// calendar event. Every successful Write appends a new event; callers own
// at-most-once invocation.
type BookingEventWriter struct {
	calendar     shared.CalendarWriter
	venue        calendar.Venue
	defaultHours float64
	logger       *slog.Logger
}

func NewBookingEventWriter(writer shared.CalendarWriter, venue calendar.Venue, defaultHours float64, logger *slog.Logger) *BookingEventWriter {
	return &BookingEventWriter{
		calendar:     writer,
		venue:        venue,
		defaultHours: defaultHours,
		logger:       logger,
	}
}

// Write returns the external id of the created event.
func (w *BookingEventWriter) Write(ctx context.Context, b *booking.Booking) (string, error) {
	ctx, span := tracer.Start(ctx, "calendar.write")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", b.ID().String()))

	hours := b.DurationHours()
	if hours <= 0 {
		w.logger.WarnContext(ctx, "Booking has no duration, using default",
			"booking_id", b.ID().String(),
			"default_hours", w.defaultHours)
		hours = w.defaultHours
	}

	start := b.Date().At(w.venue.Zone, b.Slot().MinuteOfDay())
	end := start.Add(booking.HoursToDuration(hours))

	r := b.Reservation()
	r.DurationHours = hours
	ev, err := calendar.NewBlockingEvent(w.venue, r, start, end)
	if err != nil {
		span.SetStatus(codes.Error, "invalid interval")
		return "", errs.Mark(err, shared.ErrCalendarWriteFailed)
	}

	eventID, err := w.calendar.CreateEvent(ctx, ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create event failed")
		return "", errs.Mark(errs.Wrapf(err, "create event for booking %s", b.ID()), shared.ErrCalendarWriteFailed)
	}

	span.SetAttributes(attribute.String("calendar.event_id", eventID))
	w.logger.InfoContext(ctx, "Blocking event created",
		"booking_id", b.ID().String(),
		"event_id", eventID,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339))
	return eventID, nil
}
