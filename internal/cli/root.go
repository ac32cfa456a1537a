package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/rules"
	"github.com/alexanderramin/jupytutor/internal/service"
)

// annotationNoSetup marks commands that run without config or database.
const annotationNoSetup = "jupytutor/no-setup"

// App holds the services used by CLI commands. main fills it in through
// Setup once flags are parsed; tests assign the fields directly.
type App struct {
	Tutor       service.TutorService
	History     service.HistoryService
	Preferences service.PreferenceService

	// Rules is the rule set the tutor service resolves with.
	Rules rules.RuleSet

	// AutoAsk lets watch ask on the student's behalf when a proactive cell
	// starts failing.
	AutoAsk bool

	Logger        *slog.Logger
	IsInteractive func() bool
	Now           func() time.Time

	// Setup loads configuration and wires services. It runs before every
	// command not annotated with annotationNoSetup.
	Setup      func(ctx context.Context, configPath string) error
	ConfigPath string
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// NewRootCmd creates the top-level "jupytutor" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "jupytutor",
		Short: "Context-aware tutor for Jupyter notebooks",
		Long: "jupytutor decides which notebook cells get a tutor chat, assembles the\n" +
			"surrounding cells, images and textbook pages as hidden context, and\n" +
			"keeps a per-cell conversation with the configured model.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Setup == nil || cmd.Annotations[annotationNoSetup] != "" {
				return nil
			}
			return app.Setup(cmd.Context(), app.ConfigPath)
		},
	}
	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config.json (default: user config dir)")

	root.AddCommand(
		newResolveCmd(app),
		newContextCmd(app),
		newAskCmd(app),
		newHistoryCmd(app),
		newPrefsCmd(app),
		newRulesCmd(app),
		newWatchCmd(app),
		newBrowseCmd(app),
	)

	return root
}
