// Package cmd implements the command-line interface for daytasks.
//
// This package provides the following commands:
//   - sync: Copy today's all-day calendar events into a new task list
//   - login: Run the interactive Google login for one scope
//   - secret: Print a token file as the base64 value CI expects
//   - version: Display version information
//
// The sync command is the default command when no subcommand is specified.
package cmd
