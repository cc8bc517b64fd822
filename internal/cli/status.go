package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-app/inkwell/internal/netmon"
)

func addStatus(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session, connectivity, and usage time",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			if u := app.IDs.CurrentUser(); u != nil {
				fmt.Fprintf(out, "signed in as %s (%s)\n", u.DisplayName, u.UID)
			} else {
				fmt.Fprintln(out, "signed out")
			}

			q, lat := app.Monitor.Probe(ctx)
			if q == netmon.QualityOffline {
				fmt.Fprintf(out, "network: offline (%s unreachable)\n", app.Config.DocstoreURL)
			} else {
				fmt.Fprintf(out, "network: %s (%s in %s)\n", q, app.Config.DocstoreURL, lat.Round(time.Millisecond))
			}

			fmt.Fprintf(out, "local journals: %d\n", len(app.Local.All()))
			fmt.Fprintf(out, "time in app: %s total, %s this session\n",
				app.Tracker.Total().Round(time.Second), app.Tracker.Session().Round(time.Second))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
