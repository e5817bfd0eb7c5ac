package queries

//go:generate mockgen -source=availability.go -destination=../../../tests/mock/queries/availability.go -package=queriesmock

import (
	"context"
	"log/slog"
	"time"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("venue-booking/usecase/queries")

type AvailabilityPolicy struct {
	// FailOpen serves every slot as available when the calendar read fails.
	FailOpen bool
	Timeout  time.Duration
}

type AvailabilityResult struct {
	Availability calendar.AvailabilityMap
	// Degraded is set when the result is the fail-open fallback.
	Degraded bool
}

type AvailabilityQueries interface {
	Check(ctx context.Context, date string) (*AvailabilityResult, error)
	Slots() []SlotView
}

type availabilityQueriesImpl struct {
	reader   shared.CalendarReader
	resolver *calendar.Resolver
	policy   AvailabilityPolicy
	logger   *slog.Logger
}

func NewAvailabilityQueries(
	reader shared.CalendarReader,
	resolver *calendar.Resolver,
	policy AvailabilityPolicy,
	logger *slog.Logger,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		reader:   reader,
		resolver: resolver,
		policy:   policy,
		logger:   logger,
	}
}

func (q *availabilityQueriesImpl) Check(ctx context.Context, rawDate string) (*AvailabilityResult, error) {
	date, err := schedule.ParseDate(rawDate)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "availability.check")
	defer span.End()
	span.SetAttributes(attribute.String("booking.date", date.String()))

	raws, err := q.fetch(ctx, date)
	if err != nil {
		span.RecordError(err)
		if !q.policy.FailOpen {
			span.SetStatus(codes.Error, "calendar unavailable")
			return nil, err
		}
		q.logger.ErrorContext(ctx, "Calendar unavailable, serving every slot as available",
			"date", date.String(),
			"error", err.Error())
		span.SetAttributes(attribute.Bool("availability.degraded", true))
		return &AvailabilityResult{Availability: calendar.AllAvailable(date), Degraded: true}, nil
	}

	res := q.resolver.Resolve(date, raws)
	for _, s := range res.Skipped {
		q.logger.WarnContext(ctx, "Skipping malformed calendar event",
			"date", date.String(),
			"event_id", s.ID,
			"error", s.Err.Error())
	}
	span.SetAttributes(
		attribute.Int("availability.events", len(raws)),
		attribute.Int("availability.skipped", len(res.Skipped)),
		attribute.Int("availability.available", res.Availability.AvailableCount()),
	)

	return &AvailabilityResult{Availability: res.Availability}, nil
}

// fetch marks every read failure, timeouts included, as ErrCalendarUnavailable.
func (q *availabilityQueriesImpl) fetch(ctx context.Context, date schedule.Date) ([]calendar.RawEvent, error) {
	if q.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.policy.Timeout)
		defer cancel()
	}

	from, to := q.resolver.DayWindow(date)
	raws, err := q.reader.ListEvents(ctx, from, to)
	if err != nil {
		return nil, errs.Mark(errs.Wrapf(err, "list events for %s", date), shared.ErrCalendarUnavailable)
	}
	return raws, nil
}

func (q *availabilityQueriesImpl) Slots() []SlotView {
	slots := schedule.Catalog()
	out := make([]SlotView, len(slots))
	for i, s := range slots {
		out[i] = SlotView{Label: s.Label(), MinuteOfDay: s.MinuteOfDay()}
	}
	return out
}
