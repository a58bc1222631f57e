// Package calendar reads events from the Google Calendar API.
//
// Only the parts daytasks needs are wrapped: listing the events of one
// calendar inside a time window, expanded into single instances and ordered
// by start time.
//
// Example usage:
//
//	client, err := calendar.NewClientWithProvider(ctx, store, metrics)
//	if err != nil {
//	    return err
//	}
//
//	page, err := client.ListEvents(ctx, "primary", now, now.Add(24*time.Hour), 100)
package calendar
