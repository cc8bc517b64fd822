package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addDraft(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage the in-progress draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var title, content, tags string
	save := &cobra.Command{
		Use:   "save",
		Short: "Save the draft, replacing any previous one",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Drafts.Save(title, content, tags); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "draft saved")
			return nil
		},
	}
	save.Flags().StringVar(&title, "title", "", "draft title")
	save.Flags().StringVar(&content, "content", "", "draft content")
	save.Flags().StringVar(&tags, "tags", "", "comma-separated tags")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			d, ok := app.Drafts.Load()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no draft")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n%s\n", d.Title, d.Content)
			if d.Tags != "" {
				fmt.Fprintf(out, "\ntags: %s\n", d.Tags)
			}
			fmt.Fprintf(out, "\nsaved %s\n", d.SavedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	discard := &cobra.Command{
		Use:   "discard",
		Short: "Delete the saved draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Drafts.Discard(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "draft discarded")
			return nil
		},
	}

	cmd.AddCommand(save, show, discard)
	topLevel.AddCommand(cmd)
}
