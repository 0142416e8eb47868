package calendar

import (
	"context"
	"time"

	"github.com/klokku/gcalbridge/internal/config"
	"github.com/klokku/gcalbridge/internal/event_bus"
	"github.com/klokku/gcalbridge/internal/utils"
	"github.com/klokku/gcalbridge/pkg/google"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

const (
	opList   = "list"
	opInsert = "insert"
)

// CallRecorder observes every Calendar API call made by the gateway.
type CallRecorder interface {
	RecordUpstreamCall(operation string, strategy string, err error)
}

// Gateway performs the two Calendar operations the bridge exposes against
// whichever handle it is given.
type Gateway struct {
	calendarId string
	timeout    time.Duration
	query      config.ListQuery
	sample     config.SampleEvent
	clock      utils.Clock
	bus        *event_bus.EventBus
	recorder   CallRecorder
}

func NewGateway(cfg config.Application, clock utils.Clock, bus *event_bus.EventBus, recorder CallRecorder) *Gateway {
	return &Gateway{
		calendarId: cfg.Google.CalendarId,
		timeout:    cfg.Google.Timeout,
		query:      cfg.ListQuery,
		sample:     cfg.SampleEvent,
		clock:      clock,
		bus:        bus,
		recorder:   recorder,
	}
}

// ListEvents returns upcoming events in upstream order. Events that already
// ended before the lower bound are dropped.
func (g *Gateway) ListEvents(ctx context.Context, h *google.Handle) ([]*gcal.Event, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	timeMin := g.clock.Now()
	call := h.Service.Events.List(g.calendarId).
		TimeMin(timeMin.Format(time.RFC3339)).
		MaxResults(g.query.MaxResults).
		SingleEvents(g.query.SingleEvents)
	if g.query.OrderBy != "" {
		call = call.OrderBy(g.query.OrderBy)
	}

	events, err := call.Context(ctx).Do()
	g.record(opList, h.Strategy, err)
	if err != nil {
		err := google.NewRemoteAPIError(opList, h.Strategy, err)
		log.Error(err)
		return nil, err
	}

	items := endingAfter(events.Items, timeMin)
	log.Debugf("Listed %d events from calendar %s via %s", len(items), g.calendarId, h.Strategy)
	return items, nil
}

// CreateEvent inserts the configured sample event and returns what the
// upstream stored.
func (g *Gateway) CreateEvent(ctx context.Context, h *google.Handle) (*gcal.Event, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	created, err := h.Service.Events.Insert(g.calendarId, sampleEvent(g.sample)).Context(ctx).Do()
	g.record(opInsert, h.Strategy, err)
	if err != nil {
		err := google.NewRemoteAPIError(opInsert, h.Strategy, err)
		log.Error(err)
		return nil, err
	}
	log.Infof("Created event %s in calendar %s via %s", created.Id, g.calendarId, h.Strategy)

	g.publishCreated(ctx, created, h.Strategy)
	return created, nil
}

func (g *Gateway) publishCreated(ctx context.Context, created *gcal.Event, strategy google.Strategy) {
	if g.bus == nil {
		return
	}
	payload := event_bus.CalendarEventCreated{
		UID:        created.Id,
		CalendarId: g.calendarId,
		Summary:    created.Summary,
		Start:      dateTimeString(created.Start),
		End:        dateTimeString(created.End),
		Strategy:   string(strategy),
	}
	if err := g.bus.Publish(event_bus.NewEvent(ctx, event_bus.CalendarEventCreatedType, payload)); err != nil {
		log.Warnf("failed to publish event created notification: %v", err)
	}
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) record(operation string, strategy google.Strategy, err error) {
	if g.recorder != nil {
		g.recorder.RecordUpstreamCall(operation, string(strategy), err)
	}
}

func sampleEvent(cfg config.SampleEvent) *gcal.Event {
	return &gcal.Event{
		Summary:     cfg.Summary,
		Description: cfg.Description,
		ColorId:     cfg.ColorId,
		Start: &gcal.EventDateTime{
			DateTime: cfg.Start,
			TimeZone: cfg.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: cfg.End,
			TimeZone: cfg.TimeZone,
		},
	}
}

// endingAfter keeps events whose end is not before timeMin. Events with an
// unreadable end are kept.
func endingAfter(items []*gcal.Event, timeMin time.Time) []*gcal.Event {
	kept := make([]*gcal.Event, 0, len(items))
	for _, e := range items {
		if e == nil {
			continue
		}
		if end, ok := endTime(e); ok && end.Before(timeMin) {
			log.Tracef("Dropping event %s ending at %s before %s", e.Id, end, timeMin)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func endTime(e *gcal.Event) (time.Time, bool) {
	if e.End == nil {
		return time.Time{}, false
	}
	if e.End.DateTime != "" {
		t, err := time.Parse(time.RFC3339, e.End.DateTime)
		return t, err == nil
	}
	if e.End.Date != "" {
		// all-day events end exclusively at midnight of End.Date
		t, err := time.Parse(time.DateOnly, e.End.Date)
		return t, err == nil
	}
	return time.Time{}, false
}

func dateTimeString(dt *gcal.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}
