// Package tasks writes task lists and tasks through the Google Tasks API (tasks/v1).
//
// daytasks only creates: one task list per run and one task per all-day
// event. Nothing is read back, updated or deleted.
//
// # Example Usage
//
//	client, err := tasks.NewClientWithProvider(ctx, store, metrics)
//	if err != nil {
//	    return err
//	}
//
//	list, err := client.CreateTaskList(ctx, "05-03-2024")
//	if err != nil {
//	    return err
//	}
//
//	task, err := client.CreateTask(ctx, list.ID, "Dentist")
package tasks
