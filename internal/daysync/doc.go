// Package daysync turns today's all-day calendar events into a fresh task list.
//
// A run is linear and makes no retries: fetch the events starting in the next
// 24 hours, keep the all-day ones, create a task list titled with today's date
// (DD-MM-YYYY) and add one task per kept event in fetch order. A failure
// stops the run where it happened; nothing created so far is rolled back.
package daysync
