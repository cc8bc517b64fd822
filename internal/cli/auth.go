package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func addLogin(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "login USER",
		Short: "Sign in as one of the known identities",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a user id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			u, err := app.IDs.SignIn(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Engine.WaitLoaded(ctx); err != nil {
				return err
			}
			app.prefs.UserID = u.UID
			if err := app.savePrefs(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", u.DisplayName, u.UID)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.IDs.SignOut(ctx); err != nil {
				return err
			}
			app.prefs.UserID = ""
			if err := app.savePrefs(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
