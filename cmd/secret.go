package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/google"
	"github.com/Mattschoe/DayEventToTask/internal/secrets"
)

func newSecretCmd(opts *rootOptions) *cobra.Command {
	var scopeName string

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a token file as a base64 CI secret",
		Long: `Print the base64 encoding of the token file for one scope. Store the
output as the CALENDAR_TOKEN or TASKS_TOKEN secret of your CI system.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := google.ParseScope(scopeName)
			if err != nil {
				return apperr.Configuration("secret", err)
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			encoded, err := secrets.Encode(a.tokenPath(scope))
			if err != nil {
				return err
			}

			a.logger.Info("encoded token file", "env", a.secretEnv(scope))
			_, err = fmt.Fprintln(a.out, encoded)
			return err
		},
	}

	cmd.Flags().StringVar(&scopeName, "scope", string(google.ScopeCalendarRead), "Scope whose token to print: calendar or tasks")
	return cmd
}
