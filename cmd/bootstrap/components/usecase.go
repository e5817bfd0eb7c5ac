package components

import (
	"venue-booking/internal/domain/booking"
	"venue-booking/internal/pkg/clock"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		func(cfg config.Config) *booking.DefaultPriceCalculator {
			return booking.NewDefaultPriceCalculator(cfg.Booking.HourlyRateCents, cfg.Booking.MinimumHours, cfg.Booking.CardFeePercent)
		},
		fx.As(new(booking.PriceCalculator)),
	),
	func(cfg config.Config) booking.DurationPolicy {
		return booking.DurationPolicy{
			DefaultHours: cfg.Booking.DefaultDurationHours,
			MaxHours:     cfg.Booking.MaxDurationHours,
		}
	},
	booking.NewFactory,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(cfg config.Config) commands.BookingPolicy {
			return commands.BookingPolicy{
				Currency:           cfg.Booking.Currency,
				PendingTTL:         cfg.Booking.PendingTTL,
				ExpiryBatch:        cfg.Outbox.BatchSize,
				RecheckBeforeWrite: cfg.Booking.RecheckBeforeWrite,
				FailOpen:           cfg.Availability.FailOpen(),
				LockTTL:            cfg.Redis.LockTTL,
				IdempotencyTTL:     cfg.Booking.IdempotencyTTL,
			}
		},
		NewBookingEventWriter,
		commands.NewBookingUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		func(cfg config.Config) queries.AvailabilityPolicy {
			return queries.AvailabilityPolicy{
				FailOpen: cfg.Availability.FailOpen(),
				Timeout:  cfg.Calendar.RequestTimeout,
			}
		},
		queries.NewAvailabilityQueries,
	),
)
