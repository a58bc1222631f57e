package daysync

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/calendar"
	"github.com/Mattschoe/DayEventToTask/internal/instrumentation"
	"github.com/Mattschoe/DayEventToTask/internal/logging"
	"github.com/Mattschoe/DayEventToTask/internal/tasks"
)

const (
	// NothingToDoMessage is printed when the calendar has no events today.
	NothingToDoMessage = "No tasks for today! Enjoy your day :)"

	// ListTitleLayout formats the task list title (DD-MM-YYYY).
	ListTitleLayout = "02-01-2006"

	// Window is how far ahead of now events are fetched.
	Window = 24 * time.Hour

	// DefaultMaxResults caps the event fetch when Pipeline.MaxResults is unset.
	DefaultMaxResults = 100
)

// EventLister fetches calendar events. *calendar.Client implements it.
type EventLister interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, maxResults int64) (*calendar.EventPage, error)
}

// TaskWriter creates task lists and tasks. *tasks.Client implements it.
type TaskWriter interface {
	CreateTaskList(ctx context.Context, title string) (*tasks.TaskList, error)
	CreateTask(ctx context.Context, taskListID, title string) (*tasks.Task, error)
}

// Result describes what a run did. On error it holds whatever was done
// before the failure.
type Result struct {
	// NothingToDo is set when the calendar returned no events at all.
	NothingToDo bool

	// Fetched and AllDay count the raw and retained events.
	Fetched int
	AllDay  int

	// Truncated is set when the calendar held more events than were fetched.
	Truncated bool

	ListID    string
	ListTitle string

	// Created lists the tasks inserted, in order.
	Created []tasks.Task
}

// Pipeline runs the daily sync.
type Pipeline struct {
	Events EventLister
	Tasks  TaskWriter

	// Now defaults to time.Now.
	Now func() time.Time

	// Location decides the date in the list title. Nil means time.Local.
	Location *time.Location

	// MaxResults caps the event fetch. Zero means DefaultMaxResults.
	MaxResults int64

	// Out receives user-facing messages. Nil discards them.
	Out io.Writer

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// ListTitle returns the task list title for now.
func ListTitle(now time.Time) string {
	return now.Format(ListTitleLayout)
}

// FilterAllDay returns the all-day events of events, keeping their order.
func FilterAllDay(events []calendar.Event) []calendar.Event {
	allDay := make([]calendar.Event, 0, len(events))
	for _, e := range events {
		if e.AllDay() {
			allDay = append(allDay, e)
		}
	}
	return allDay
}

// Run syncs today's all-day events of calendarID into a new task list.
func (p *Pipeline) Run(ctx context.Context, calendarID string) (res *Result, err error) {
	res = &Result{}
	logger := logging.OrDefault(p.Logger)

	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		p.Metrics.RecordSyncRun(ctx, status, res.Fetched, res.AllDay, len(res.Created))
	}()

	if calendarID == "" {
		return res, apperr.Configuration("sync", apperr.ErrNoCalendarID)
	}

	now := p.now()
	calendarAttr := logging.CalendarHash(calendarID)

	page, err := p.fetch(ctx, calendarID, now)
	if err != nil {
		logger.Error("failed to fetch events", calendarAttr, logging.Err(err))
		return res, apperr.RemoteService("sync.fetch", err)
	}
	res.Fetched = len(page.Events)
	res.Truncated = page.Truncated
	if page.Truncated {
		logger.Warn("results capped, later events of the day are ignored",
			calendarAttr, logging.Count(res.Fetched))
	}

	if res.Fetched == 0 {
		logger.Info("no events today", calendarAttr)
		res.NothingToDo = true
		p.println(NothingToDoMessage)
		return res, nil
	}

	_, filterSpan := instrumentation.StartStageSpan(ctx, "filter")
	allDay := FilterAllDay(page.Events)
	filterSpan.SetAttributes(attribute.Int(instrumentation.SpanAttrCount, len(allDay)))
	instrumentation.EndSpan(filterSpan, nil)

	res.AllDay = len(allDay)
	logger.Info("fetched events", calendarAttr, logging.Count(res.Fetched), "all_day", res.AllDay)

	res.ListTitle = ListTitle(now)
	list, err := p.createList(ctx, res.ListTitle)
	if err != nil {
		logger.Error("failed to create task list", "title", res.ListTitle, logging.Err(err))
		return res, apperr.RemoteService("sync.create_list", err)
	}
	res.ListID = list.ID
	logger.Info("created task list", "title", res.ListTitle)

	if err := p.populate(ctx, list.ID, allDay, res); err != nil {
		logger.Error("failed to create task", logging.Count(len(res.Created)), logging.Err(err))
		return res, apperr.RemoteService("sync.populate", err)
	}

	logger.Info("sync complete", "title", res.ListTitle, logging.Count(len(res.Created)), logging.Status(logging.StatusSuccess))
	return res, nil
}

func (p *Pipeline) fetch(ctx context.Context, calendarID string, now time.Time) (page *calendar.EventPage, err error) {
	ctx, span := instrumentation.StartStageSpan(ctx, "fetch")
	defer func() { instrumentation.EndSpan(span, err) }()

	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	page, err = p.Events.ListEvents(ctx, calendarID, now, now.Add(Window), maxResults)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &calendar.EventPage{}
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrCount, len(page.Events)))
	return page, nil
}

func (p *Pipeline) createList(ctx context.Context, title string) (list *tasks.TaskList, err error) {
	ctx, span := instrumentation.StartStageSpan(ctx, "create_list")
	defer func() { instrumentation.EndSpan(span, err) }()

	list, err = p.Tasks.CreateTaskList(ctx, title)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// populate inserts one task per event, stopping at the first failure.
func (p *Pipeline) populate(ctx context.Context, listID string, events []calendar.Event, res *Result) (err error) {
	ctx, span := instrumentation.StartStageSpan(ctx, "populate")
	defer func() {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrCount, len(res.Created)))
		instrumentation.EndSpan(span, err)
	}()

	for i, event := range events {
		task, err := p.Tasks.CreateTask(ctx, listID, event.Summary)
		if err != nil {
			return fmt.Errorf("task %d of %d: %w", i+1, len(events), err)
		}
		res.Created = append(res.Created, *task)
	}
	return nil
}

func (p *Pipeline) now() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

func (p *Pipeline) println(msg string) {
	if p.Out != nil {
		_, _ = fmt.Fprintln(p.Out, msg)
	}
}
