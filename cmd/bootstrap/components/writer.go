package components

import (
	"log/slog"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/shared"
)

func NewBookingEventWriter(writer shared.CalendarWriter, venue calendar.Venue, cfg config.Config, logger *slog.Logger) *commands.BookingEventWriter {
	return commands.NewBookingEventWriter(writer, venue, cfg.Booking.DefaultDurationHours, logger)
}
