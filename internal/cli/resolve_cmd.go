package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
)

func newResolveCmd(app *App) *cobra.Command {
	var cell string

	cmd := &cobra.Command{
		Use:   "resolve <notebook.ipynb>",
		Short: "Show which cells get a tutor chat and which rules decided it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := loadNotebook(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if cell != "" {
				idx, err := resolveCellIndex(nb, cell)
				if err != nil {
					return err
				}
				d, err := app.Tutor.Decide(ctx, nb, idx)
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatDecision(nb, d, app.Rules))
				return nil
			}

			decisions, err := app.Tutor.DecideAll(ctx, nb)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatDecisions(nb, decisions, app.Rules))
			return nil
		},
	}

	cmd.Flags().StringVar(&cell, "cell", "", "Explain a single cell (index or cell id)")
	return cmd
}
