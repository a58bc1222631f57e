package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Mattschoe/DayEventToTask/internal/google"
	"github.com/Mattschoe/DayEventToTask/internal/instrumentation"
)

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
}

// NewClientWithProvider creates a Calendar client authorized by the given token provider.
func NewClientWithProvider(ctx context.Context, provider google.TokenProvider, metrics *instrumentation.Metrics) (*Client, error) {
	if provider == nil {
		return nil, errors.New("token provider cannot be nil")
	}
	return NewClientWithOptions(ctx, metrics, option.WithHTTPClient(google.NewHTTPClient(ctx, provider)))
}

// NewClientWithOptions creates a Calendar client from raw client options.
func NewClientWithOptions(ctx context.Context, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, metrics: metrics}, nil
}

// ListEvents lists the events of calendarID starting in [timeMin, timeMax),
// recurring events expanded, ordered by start time. At most maxResults
// events are returned; EventPage.Truncated reports whether more exist.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64) (page *EventPage, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList)
	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList, status, time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	page = &EventPage{
		Events:    make([]Event, 0, len(events.Items)),
		Truncated: events.NextPageToken != "",
	}
	for _, event := range events.Items {
		page.Events = append(page.Events, toEvent(event))
	}

	return page, nil
}
