package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
	"github.com/alexanderramin/jupytutor/internal/service"
)

func newHistoryCmd(app *App) *cobra.Command {
	var cell string
	var all, clear bool

	cmd := &cobra.Command{
		Use:   "history <notebook.ipynb>",
		Short: "List conversations, show one, or clear it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			key, err := notebookKey(args[0])
			if err != nil {
				return err
			}

			if cell == "" {
				if clear {
					return fmt.Errorf("--clear needs --cell")
				}
				threads, err := app.History.Threads(ctx, key)
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatThreads(key, threads))
				return nil
			}

			threadID := cell
			// Map positions to ids when the notebook is readable; otherwise
			// the flag is taken as a raw thread id.
			if nb, err := loadNotebook(args[0]); err == nil {
				if idx, err := resolveCellIndex(nb, cell); err == nil {
					threadID = service.CellThreadID(nb, idx)
				}
			}

			if clear {
				n, err := app.History.Clear(ctx, key, threadID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d messages from %s.\n", n, threadID)
				return nil
			}

			msgs, err := app.History.List(ctx, key, threadID)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatMessages(msgs, all, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&cell, "cell", "", "Cell whose conversation to show (index or cell id)")
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden context messages")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the cell's conversation")
	return cmd
}
