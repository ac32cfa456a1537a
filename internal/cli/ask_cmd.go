package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/service"
)

func newAskCmd(app *App) *cobra.Command {
	var cell string

	cmd := &cobra.Command{
		Use:   "ask <notebook.ipynb> [question...]",
		Short: "Ask the tutor about a cell",
		Long: "Ask the tutor about a cell. The first question in a cell's conversation\n" +
			"carries the surrounding cells as hidden context; a blank first question\n" +
			"asks the tutor to review the current attempt. Without a question on an\n" +
			"interactive terminal, a prompt offers the cell's quick responses.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := loadNotebook(args[0])
			if err != nil {
				return err
			}
			idx, err := resolveCellIndex(nb, cell)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			question := strings.TrimSpace(strings.Join(args[1:], " "))
			if question == "" && app.interactive() {
				if question, err = promptQuestion(ctx, app, nb, idx); err != nil {
					return err
				}
			}

			stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Asking the tutor...", app.interactive())
			res, err := app.Tutor.Ask(ctx, nb, idx, question)
			stop()
			if errors.Is(err, service.ErrEmptyQuestion) {
				return fmt.Errorf("%w: this cell already has a conversation, so pass a question", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReply(res.Reply, res.FirstQuery, res.Images))
			return nil
		},
	}

	cmd.Flags().StringVar(&cell, "cell", "", "Cell to ask about (index or cell id)")
	_ = cmd.MarkFlagRequired("cell")
	return cmd
}

// promptQuestion asks interactively, offering the cell's quick responses
// first when it has any.
func promptQuestion(ctx context.Context, app *App, nb *notebook.Notebook, idx int) (string, error) {
	d, err := app.Tutor.Decide(ctx, nb, idx)
	if err != nil {
		return "", err
	}
	if !d.Config.ChatEnabled {
		return "", fmt.Errorf("cell %d: %w", idx, service.ErrChatDisabled)
	}

	if quick := d.Config.QuickResponses; len(quick) > 0 {
		var choice string
		if err := quickResponseForm(quick, &choice).RunWithContext(ctx); err != nil {
			return "", err
		}
		if choice != ownQuestion {
			return choice, nil
		}
	}

	past, err := app.History.List(ctx, nb.Path, service.CellThreadID(nb, idx))
	if err != nil {
		return "", err
	}
	var question string
	if err := questionForm(len(past) == 0, &question).RunWithContext(ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(question), nil
}

func validateQuestion(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("type a question")
	}
	return nil
}
