package bootstrap

import (
	"context"
	"log/slog"
	"net/http"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/infra/gcal"
	"venue-booking/internal/infra/memcal"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/usecase/shared"

	"go.uber.org/fx"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type CalendarPorts struct {
	fx.Out

	Reader shared.CalendarReader
	Writer shared.CalendarWriter
}

var VenueModule = fx.Module("venue",
	fx.Provide(
		NewVenue,
		NewResolver,
	),
)

var CalendarModule = fx.Module("calendar",
	fx.Provide(
		NewCalendarPorts,
	),
)

func NewVenue(cfg config.Config) (calendar.Venue, error) {
	loc, err := schedule.LoadLocation(cfg.Venue.TimeZone)
	if err != nil {
		return calendar.Venue{}, err
	}
	return calendar.Venue{
		Name:         cfg.Venue.Name,
		Location:     cfg.Venue.Location,
		ContactEmail: cfg.Venue.ContactEmail,
		Zone:         loc,
	}, nil
}

func NewResolver(venue calendar.Venue) *calendar.Resolver {
	return calendar.NewResolver(venue.Zone)
}

func NewCalendarPorts(cfg config.Config, logger *slog.Logger) (CalendarPorts, error) {
	if cfg.Calendar.Driver == "memory" {
		logger.Warn("Using in-memory calendar, bookings will not reach Google Calendar")
		cal := memcal.New()
		return CalendarPorts{Reader: cal, Writer: cal}, nil
	}

	ctx := context.Background()
	ts, err := gcal.TokenSource(ctx, cfg.Calendar.ClientEmail, cfg.Calendar.PrivateKey)
	if err != nil {
		return CalendarPorts{}, err
	}
	httpClient := &http.Client{
		Timeout:   cfg.Calendar.RequestTimeout,
		Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport},
	}
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return CalendarPorts{}, err
	}
	client := gcal.NewClient(svc, cfg.Calendar.CalendarID, cfg.Calendar.MaxResults, logger)
	logger.Info("Google Calendar client initialized", "calendar_id", cfg.Calendar.CalendarID)
	return CalendarPorts{Reader: client, Writer: client}, nil
}
