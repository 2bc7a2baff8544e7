package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/akyairhashvil/okrcap/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [id]",
		Short: "Browse the hierarchy interactively",
		Long: `Browse the hierarchy interactively, optionally starting from one node.
Press ? inside the browser for key bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *environment) error {
			var root string
			if len(args) == 1 {
				root = args[0]
			}
			m, err := tui.NewBrowseModel(cmd.Context(), env.svc, root)
			if err != nil {
				return err
			}
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		}),
	}
}
