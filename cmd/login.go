package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mattschoe/DayEventToTask/internal/apperr"
	"github.com/Mattschoe/DayEventToTask/internal/google"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var scopeName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Google and save the token for one scope",
		Long: `Run the interactive Google login for one scope and save the token file,
replacing any token already stored. You are asked for the path of an OAuth
client secret file (Desktop app) downloaded from the Google Cloud console.

Use this to bootstrap the token files before producing CI secrets with
'daytasks secret'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := google.ParseScope(scopeName)
			if err != nil {
				return apperr.Configuration("login", err)
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if a.ci {
				return apperr.Interactive("login", errors.New("login needs an interactive session; unset the CI markers to run it"))
			}

			store, err := a.store(scope)
			if err != nil {
				return err
			}
			if _, err := store.Login(cmd.Context()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(a.out, "Saved %s token to %s\n", scope, store.TokenPath())
			return err
		},
	}

	cmd.Flags().StringVar(&scopeName, "scope", string(google.ScopeCalendarRead), "Scope to log in for: calendar or tasks")
	return cmd
}
