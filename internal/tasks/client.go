package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/Mattschoe/DayEventToTask/internal/google"
	"github.com/Mattschoe/DayEventToTask/internal/instrumentation"
)

// Client wraps the Google Tasks service
type Client struct {
	svc     *tasks.Service
	metrics *instrumentation.Metrics
}

// NewClientWithProvider creates a Tasks client authorized by the given token provider.
func NewClientWithProvider(ctx context.Context, provider google.TokenProvider, metrics *instrumentation.Metrics) (*Client, error) {
	if provider == nil {
		return nil, errors.New("token provider cannot be nil")
	}
	return NewClientWithOptions(ctx, metrics, option.WithHTTPClient(google.NewHTTPClient(ctx, provider)))
}

// NewClientWithOptions creates a Tasks client from raw client options.
func NewClientWithOptions(ctx context.Context, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	return &Client{svc: svc, metrics: metrics}, nil
}

// CreateTaskList creates a new task list
func (c *Client) CreateTaskList(ctx context.Context, title string) (list *TaskList, err error) {
	ctx, done := c.observe(ctx, "tasklist")
	defer func() { done(err) }()

	created, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create task list: %w", err)
	}

	result := toTaskList(created)
	return &result, nil
}

// CreateTask appends a task titled title to the end of list taskListID
func (c *Client) CreateTask(ctx context.Context, taskListID, title string) (task *Task, err error) {
	ctx, done := c.observe(ctx, "task")
	defer func() { done(err) }()

	created, err := c.svc.Tasks.Insert(taskListID, &tasks.Task{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	result := toTask(created, taskListID)
	return &result, nil
}

// observe starts a span for a create call and returns the function that
// ends it and records the operation metric.
func (c *Client) observe(ctx context.Context, resource string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceTasks, instrumentation.OperationCreate,
		attribute.String(instrumentation.SpanAttrResource, resource))
	start := time.Now()

	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceTasks, instrumentation.OperationCreate, status, time.Since(start))
		instrumentation.EndSpan(span, err)
	}
}
