package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-app/inkwell/internal/journal"
	"github.com/inkwell-app/inkwell/internal/model"
)

func addCreate(topLevel *cobra.Command) {
	var title, content, tags string
	var fromDraft bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			in := journal.Input{Title: title, Content: content, Tags: model.SplitTags(tags)}
			if fromDraft {
				d, ok := app.Drafts.Load()
				if !ok {
					return fmt.Errorf("no draft to submit")
				}
				if in.Title == "" {
					in.Title = d.Title
				}
				if in.Content == "" {
					in.Content = d.Content
				}
				if len(in.Tags) == 0 {
					in.Tags = model.SplitTags(d.Tags)
				}
			}

			j, err := app.Engine.Create(ctx, in)
			if err != nil {
				return err
			}
			if err := app.Drafts.Discard(); err != nil {
				app.Log.Warn().Err(err).Msg("could not discard draft")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", j.ID, saveOutcome(j))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "journal title")
	cmd.Flags().StringVar(&content, "content", "", "journal content")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().BoolVar(&fromDraft, "from-draft", false, "fill empty fields from the saved draft")
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command) {
	var title, content, tags string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a journal you own",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			existing, err := app.Engine.Get(args[0])
			if err != nil {
				return err
			}
			in := journal.Input{Title: existing.Title, Content: existing.Content, Tags: existing.Tags}
			if cmd.Flags().Changed("title") {
				in.Title = title
			}
			if cmd.Flags().Changed("content") {
				in.Content = content
			}
			if cmd.Flags().Changed("tags") {
				in.Tags = model.SplitTags(tags)
			}

			j, err := app.Engine.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", j.ID, saveOutcome(j))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&tags, "tags", "", "new comma-separated tags")
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a journal you own",
		Args:  requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Engine.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

// saveOutcome phrases where the write landed. Remote failures during create
// and edit degrade to the local store rather than erroring, so the tier is
// the interesting part of the result.
func saveOutcome(j model.Journal) string {
	if j.Ref == model.TierFallback {
		return "saved locally, will sync later"
	}
	return "saved"
}
