package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
	"github.com/alexanderramin/jupytutor/internal/service"
	"github.com/alexanderramin/jupytutor/internal/window"
)

func newContextCmd(app *App) *cobra.Command {
	var cell, scope string
	var withTextbook bool

	cmd := &cobra.Command{
		Use:   "context <notebook.ipynb>",
		Short: "Print the hidden context the tutor would see for a cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := loadNotebook(args[0])
			if err != nil {
				return err
			}
			idx, err := resolveCellIndex(nb, cell)
			if err != nil {
				return err
			}

			var opts service.ContextOptions
			if scope != "" {
				if opts.Scope, err = window.ParseScope(scope); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("textbook") {
				opts.IncludeTextbook = &withTextbook
			}

			bundle, err := app.Tutor.BuildContext(cmd.Context(), nb, idx, opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatContext(bundle))
			return nil
		},
	}

	cmd.Flags().StringVar(&cell, "cell", "", "Active cell (index or cell id)")
	cmd.Flags().StringVar(&scope, "scope", "", "Context scope: whole, upToGrader, fiveAround, tenAround or none")
	cmd.Flags().BoolVar(&withTextbook, "textbook", false, "Include textbook pages linked from the notebook")
	_ = cmd.MarkFlagRequired("cell")
	return cmd
}
