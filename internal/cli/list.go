package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-app/inkwell/internal/journal"
	"github.com/inkwell-app/inkwell/internal/model"
)

func addList(topLevel *cobra.Command) {
	var lang string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the merged journal view, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := NewApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			entries := app.Engine.MergedView(ctx, pickLang(lang, app))
			renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default: configured language)")
	topLevel.AddCommand(cmd)
}

func addSearch(topLevel *cobra.Command) {
	var lang string
	var oldestFirst bool
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Filter the merged view by title, content, or tag",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a search query")
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

			q := strings.Join(args, " ")
			entries := app.Engine.Search(ctx, q, pickLang(lang, app), oldestFirst)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no journals match")
				return nil
			}
			renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default: configured language)")
	cmd.Flags().BoolVar(&oldestFirst, "oldest", false, "oldest first instead of newest first")
	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command) {
	var lang string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print one journal in full",
		Args:  requireID,
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
			display, err := app.Engine.Translate(ctx, &j, pickLang(lang, app))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  [%s]\n", j.ID, j.Ref)
			fmt.Fprintf(out, "%s\n\n", display.Title)
			fmt.Fprintln(out, display.Content)
			if len(display.Tags) > 0 {
				fmt.Fprintf(out, "\ntags: %s\n", strings.Join(display.Tags, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "display language (default: configured language)")
	topLevel.AddCommand(cmd)
}

func requireID(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("requires a journal id")
	}
	return nil
}

func pickLang(flag string, app *App) string {
	if flag != "" {
		return flag
	}
	return app.Language()
}

func renderEntries(w io.Writer, entries []journal.Entry) {
	for _, e := range entries {
		excerpt := e.Display.Content
		if runes := []rune(excerpt); len(runes) > model.ExcerptLength {
			excerpt = string(runes[:model.ExcerptLength]) + "…"
		}
		fmt.Fprintf(w, "%s  [%s]  %s\n", e.Journal.ID, e.Journal.Ref, e.Display.Title)
		fmt.Fprintf(w, "    %s\n", excerpt)
		if len(e.Display.Tags) > 0 {
			fmt.Fprintf(w, "    tags: %s\n", strings.Join(e.Display.Tags, ", "))
		}
	}
}
