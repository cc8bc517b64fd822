package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func addTranslate(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "translate ID LANG",
		Short: "Translate a journal and cache the result",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("requires a journal id and a language code")
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

			j, err := app.Engine.Get(args[0])
			if err != nil {
				return err
			}
			display, err := app.Engine.Translate(ctx, &j, args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n%s\n", display.Title, display.Content)
			if len(display.Tags) > 0 {
				fmt.Fprintf(out, "\ntags: %s\n", strings.Join(display.Tags, ", "))
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
