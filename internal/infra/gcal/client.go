package gcal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domcal "venue-booking/internal/domain/calendar"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var tracer = otel.Tracer("venue-booking/infra/gcal")

const (
	colorRed        = "11"
	reminderDayMins = 24 * 60
	reminderHrMins  = 60
)

type Client struct {
	svc        *calendar.Service
	calendarID string
	maxResults int64
	logger     *slog.Logger
}

func NewService(ctx context.Context, opts ...option.ClientOption) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "create calendar service")
	}
	return svc, nil
}

func NewClient(svc *calendar.Service, calendarID string, maxResults int64, logger *slog.Logger) *Client {
	return &Client{
		svc:        svc,
		calendarID: calendarID,
		maxResults: maxResults,
		logger:     logger,
	}
}

// ListEvents pages through single-instance events overlapping [from, to).
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]domcal.RawEvent, error) {
	ctx, span := tracer.Start(ctx, "gcal.list_events", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var (
		out   []domcal.RawEvent
		token string
	)
	for {
		call := c.svc.Events.List(c.calendarID).
			Context(ctx).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(c.maxResults)
		if token != "" {
			call = call.PageToken(token)
		}

		page, err := call.Do()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list events failed")
			return nil, errs.Wrapf(err, "list events %s..%s", from.Format(time.RFC3339), to.Format(time.RFC3339))
		}
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			out = append(out, toRaw(item))
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	span.SetAttributes(attribute.Int("gcal.events", len(out)))
	return out, nil
}

func (c *Client) CreateEvent(ctx context.Context, ev domcal.BlockingEvent) (string, error) {
	ctx, span := tracer.Start(ctx, "gcal.create_event", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", ev.BookingID))

	created, err := c.svc.Events.Insert(c.calendarID, toGoogle(ev)).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert event failed")
		return "", errs.Wrap(err, "insert event")
	}

	c.logger.DebugContext(ctx, "Calendar event inserted",
		"event_id", created.Id,
		"html_link", created.HtmlLink)
	return created.Id, nil
}

func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, span := tracer.Start(ctx, "gcal.delete_event", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := c.svc.Events.Delete(c.calendarID, eventID).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			return errs.Wrapf(shared.ErrEventNotFound, "event %s", eventID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete event failed")
		return errs.Wrapf(err, "delete event %s", eventID)
	}
	return nil
}

func toRaw(item *calendar.Event) domcal.RawEvent {
	raw := domcal.RawEvent{ID: item.Id, Summary: item.Summary}
	if item.Start != nil {
		raw.Start = domcal.EventTime{DateTime: item.Start.DateTime, Date: item.Start.Date}
	}
	if item.End != nil {
		raw.End = domcal.EventTime{DateTime: item.End.DateTime, Date: item.End.Date}
	}
	return raw
}

func toGoogle(ev domcal.BlockingEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		ColorId:      colorRed,
		Transparency: "opaque",
		Visibility:   "public",
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: reminderDayMins},
				{Method: "email", Minutes: reminderHrMins},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"bookingId":     ev.BookingID,
				"bookingStatus": ev.BookingStatus,
				"venueBooking":  "true",
			},
		},
	}
}
