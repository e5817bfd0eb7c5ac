package memcal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"
)

// Calendar is an in-process calendar used by tests and the "memory" driver.
type Calendar struct {
	mu        sync.Mutex
	seq       int
	events    map[string]calendar.RawEvent
	created   []calendar.BlockingEvent
	readErr   error
	writeErr  error
	deleteErr error
}

func New() *Calendar {
	return &Calendar{events: make(map[string]calendar.RawEvent)}
}

// Seed stores raw as-is, malformed records included.
func (c *Calendar) Seed(raws ...calendar.RawEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, raw := range raws {
		if raw.ID == "" {
			c.seq++
			raw.ID = fmt.Sprintf("seed-%d", c.seq)
		}
		c.events[raw.ID] = raw
	}
}

// Reset drops every event and injected failure. Ids keep increasing.
func (c *Calendar) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = make(map[string]calendar.RawEvent)
	c.created = nil
	c.readErr = nil
	c.writeErr = nil
	c.deleteErr = nil
}

func (c *Calendar) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
}

func (c *Calendar) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *Calendar) FailDeletes(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteErr = err
}

// Created lists every blocking event accepted by CreateEvent, deleted ones included.
func (c *Calendar) Created() []calendar.BlockingEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]calendar.BlockingEvent, len(c.created))
	copy(out, c.created)
	return out
}

func (c *Calendar) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *Calendar) Get(id string) (calendar.RawEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.events[id]
	return e, ok
}

func (c *Calendar) ListEvents(ctx context.Context, from, to time.Time) ([]calendar.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}

	loc := from.Location()
	out := make([]calendar.RawEvent, 0, len(c.events))
	for _, raw := range c.events {
		e, err := calendar.Normalize(raw, loc)
		if err == nil && !e.Overlaps(from, to) {
			continue
		}
		out = append(out, raw)
	}
	sort.Slice(out, func(i, j int) bool {
		return startKey(out[i]) < startKey(out[j])
	})
	return out, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, ev calendar.BlockingEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return "", c.writeErr
	}

	c.seq++
	id := fmt.Sprintf("mem-%d", c.seq)
	c.events[id] = calendar.RawEvent{
		ID:      id,
		Summary: ev.Summary,
		Start:   calendar.EventTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:     calendar.EventTime{DateTime: ev.End.Format(time.RFC3339)},
	}
	c.created = append(c.created, ev)
	return id, nil
}

func (c *Calendar) DeleteEvent(ctx context.Context, eventID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	if _, ok := c.events[eventID]; !ok {
		return errs.Wrapf(shared.ErrEventNotFound, "event %q", eventID)
	}
	delete(c.events, eventID)
	return nil
}

func startKey(raw calendar.RawEvent) string {
	if raw.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, raw.Start.DateTime); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
		return raw.Start.DateTime
	}
	return raw.Start.Date
}
