package cli

import (
	"github.com/spf13/cobra"
)

// New builds the root inkwell command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inkwell",
		Short:         "A journal that keeps writing when the network does not.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addCommands(cmd)
	return cmd
}

func addCommands(topLevel *cobra.Command) {
	addLogin(topLevel)
	addLogout(topLevel)
	addList(topLevel)
	addSearch(topLevel)
	addShow(topLevel)
	addCreate(topLevel)
	addEdit(topLevel)
	addDelete(topLevel)
	addTranslate(topLevel)
	addDraft(topLevel)
	addStatus(topLevel)
}
