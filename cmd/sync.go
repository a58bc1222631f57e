package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/calendar"
	"github.com/Mattschoe/DayEventToTask/internal/config"
	"github.com/Mattschoe/DayEventToTask/internal/daysync"
	"github.com/Mattschoe/DayEventToTask/internal/google"
	"github.com/Mattschoe/DayEventToTask/internal/logging"
	"github.com/Mattschoe/DayEventToTask/internal/secrets"
	"github.com/Mattschoe/DayEventToTask/internal/tasks"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create today's task list from all-day calendar events",
		Long: `Fetch the events starting in the next 24 hours from the configured calendar,
keep the all-day ones and create a new task list titled with today's date
holding one task per event.

The calendar id is taken from the --calendar-id flag, the CALENDAR_ID
environment variable or the cached calendarID.data file, in that order.
On a terminal you are asked for it when none is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.calendarID, "calendar-id", "", "Calendar to read events from. Overrides CALENDAR_ID and the cached id.")
	return cmd
}

func runSync(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger.With(logging.Operation("sync"))
	metrics := a.provider.Metrics()

	if a.ci {
		logger.Debug("non-interactive run")
		a.materializeSecrets()
	}

	loc, err := a.location()
	if err != nil {
		return err
	}

	// Both credentials are settled before any call to Calendar or Tasks.
	calendarStore, err := a.store(google.ScopeCalendarRead)
	if err != nil {
		return err
	}
	if _, err := calendarStore.Credential(ctx); err != nil {
		return err
	}
	tasksStore, err := a.store(google.ScopeTasksWrite)
	if err != nil {
		return err
	}
	if _, err := tasksStore.Credential(ctx); err != nil {
		return err
	}

	calendarID := opts.calendarID
	if calendarID == "" {
		resolver := config.NewCalendarIDResolver(a.cfg, !a.ci, a.in, a.out, logger)
		resolver.Lookup = a.lookup
		calendarID, err = resolver.Resolve(ctx)
		if err != nil {
			return err
		}
	}
	if calendarID == "" {
		return apperr.Configuration("sync", fmt.Errorf("%w: set %s or run daytasks on a terminal once", apperr.ErrNoCalendarID, a.cfg.Env.CalendarID))
	}

	calendarClient, err := calendar.NewClientWithProvider(ctx, calendarStore, metrics)
	if err != nil {
		return apperr.Configuration("sync", err)
	}
	tasksClient, err := tasks.NewClientWithProvider(ctx, tasksStore, metrics)
	if err != nil {
		return apperr.Configuration("sync", err)
	}

	pipeline := &daysync.Pipeline{
		Events:     calendarClient,
		Tasks:      tasksClient,
		Location:   loc,
		MaxResults: a.cfg.MaxResults,
		Out:        a.out,
		Logger:     logger,
		Metrics:    metrics,
	}

	res, err := pipeline.Run(ctx, calendarID)
	if err != nil {
		if res != nil && res.ListID != "" {
			_, _ = fmt.Fprintf(a.out, "Created task list %s with %d of %d tasks before the failure\n",
				res.ListTitle, len(res.Created), res.AllDay)
		}
		return err
	}

	if !res.NothingToDo {
		_, _ = fmt.Fprintf(a.out, "Created task list %s with %d %s\n", res.ListTitle, len(res.Created), plural(len(res.Created), "task", "tasks"))
	}
	return nil
}

// materializeSecrets writes the token files held in CI secrets. Failures are
// logged and the run continues with whatever is on disk.
func (a *app) materializeSecrets() {
	for _, scope := range google.Scopes {
		name := a.secretEnv(scope)
		if err := secrets.Materialize(secrets.Lookup(a.lookup), name, a.tokenPath(scope)); err != nil {
			a.logger.Warn("failed to materialize secret", "env", name, logging.Scope(scope.String()), logging.Err(err))
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
