package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI
func SetVersion(v string) {
	version = v
}

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	dataDir    string
	calendarID string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "daytasks",
		Short: "Turns today's all-day calendar events into a Google Tasks list",
		Long: `daytasks reads the all-day events of the next 24 hours from a Google
Calendar and creates a new Google Tasks list, titled with today's date
(DD-MM-YYYY), holding one task per event.

It runs once and exits, interactively on a terminal or unattended in CI.
In CI the OAuth tokens are taken from the CALENDAR_TOKEN and TASKS_TOKEN
environment variables (base64 of the token files, see 'daytasks secret').`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "daytasks version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/daytasks/config.yaml). Can also use DAYTASKS_CONFIG env var.")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory holding token files and the calendar id cache. Can also use DAYTASKS_DATA_DIR env var.")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json. Can also use LOG_FORMAT env var.")

	rootCmd.AddCommand(newSyncCmd(opts))
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newSecretCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application. It exits the
// process with the code matching the error kind.
func Execute() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// If no subcommand is provided, run the sync command by default
	if len(args) == 0 {
		args = []string{"sync"}
	}

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return apperr.ExitOK
	}

	if errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintln(stderr, "Error: interrupted")
		return apperr.ExitUnknown
	}
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	return apperr.ExitCode(err)
}
