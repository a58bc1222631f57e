package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventStart is the start of an event. All-day events carry only Date
// (YYYY-MM-DD); timed events carry DateTime.
type EventStart struct {
	Date     string
	DateTime time.Time
	TimeZone string
}

// Event is a calendar event as daytasks sees it.
type Event struct {
	ID      string
	Summary string
	Status  string
	Start   EventStart
}

// AllDay reports whether the event starts on a date rather than a point in time.
func (e Event) AllDay() bool {
	return e.Start.Date != "" && e.Start.DateTime.IsZero()
}

// EventPage is one page of a listing.
type EventPage struct {
	Events []Event

	// Truncated is set when the service holds more events than were returned.
	Truncated bool
}

// toEvent converts a Calendar API event
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}

	e := Event{
		ID:      event.Id,
		Summary: event.Summary,
		Status:  event.Status,
	}

	if event.Start != nil {
		e.Start.Date = event.Start.Date
		e.Start.TimeZone = event.Start.TimeZone
		if event.Start.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
				e.Start.DateTime = t
			}
		}
	}

	return e
}
