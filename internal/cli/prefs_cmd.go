package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
)

func newPrefsCmd(app *App) *cobra.Command {
	var proactive bool

	cmd := &cobra.Command{
		Use:   "prefs <notebook.ipynb>",
		Short: "Show or change per-notebook preferences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := notebookKey(args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("proactive") {
				if err := app.Preferences.SetProactive(ctx, key, proactive); err != nil {
					return err
				}
			}

			p, err := app.Preferences.Get(ctx, key)
			if err != nil {
				return err
			}
			state := formatter.StyleGreen.Render("on")
			if !p.ProactiveEnabled {
				state = formatter.Dim("off")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nProactive hints: %s\n", formatter.Header(key), state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&proactive, "proactive", true, "Allow the tutor to open chats on its own")
	return cmd
}
