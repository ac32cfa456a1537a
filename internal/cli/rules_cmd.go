package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
	"github.com/alexanderramin/jupytutor/internal/rules"
)

func newRulesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule sets",
	}

	cmd.AddCommand(
		newRulesShowCmd(app),
		newRulesValidateCmd(),
		newRulesDefaultCmd(),
	)
	return cmd
}

func newRulesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Summarise the active rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRuleSet("active rules", app.Rules))
			return nil
		},
	}
}

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <rules.yaml|rules.json>",
		Short:       "Check a rule file against the schema and compile its patterns",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRuleSet(args[0], rs))
			return nil
		},
	}
}

func newRulesDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "default",
		Short:       "Print the built-in rule set as YAML",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(rules.DefaultRulesYAML())
			return err
		},
	}
}
