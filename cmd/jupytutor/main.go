package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/jupytutor/internal/cli"
	"github.com/alexanderramin/jupytutor/internal/config"
	"github.com/alexanderramin/jupytutor/internal/db"
	"github.com/alexanderramin/jupytutor/internal/llm"
	"github.com/alexanderramin/jupytutor/internal/logging"
	"github.com/alexanderramin/jupytutor/internal/repository"
	"github.com/alexanderramin/jupytutor/internal/rules"
	"github.com/alexanderramin/jupytutor/internal/service"
	"github.com/alexanderramin/jupytutor/internal/textbook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	app := &cli.App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	app.Setup = func(ctx context.Context, configPath string) error {
		c, err := setup(app, configPath)
		closers = append(closers, c...)
		return err
	}

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// setup loads configuration and wires services into app. The returned
// closers are released after the command finishes, even on error.
func setup(app *cli.App, configPath string) ([]io.Closer, error) {
	var closers []io.Closer

	cfg, err := config.Load(config.Options{Path: configPath})
	if err != nil {
		return closers, fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		Terminal: os.Stderr,
	})
	if err != nil {
		return closers, fmt.Errorf("configuring logging: %w", err)
	}
	closers = append(closers, closerFunc(closeLog))
	slog.SetDefault(logger)

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return closers, fmt.Errorf("opening database: %w", err)
	}
	closers = append(closers, database)

	// Wire repositories
	historyRepo := repository.NewSQLiteHistoryRepo(database)
	prefsRepo := repository.NewSQLitePreferenceRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	rs := rules.DefaultRuleSet()
	if cfg.RulesPath != "" {
		if rs, err = rules.LoadFile(cfg.RulesPath); err != nil {
			return closers, err
		}
	}

	var textbooks service.TextbookSource
	if cfg.ContextGathering.Enabled {
		textbooks = textbook.NewService(cfg.TextbookOptions(), nil, logger)
	}

	var llmObserver llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls {
		llmObserver = llm.NewLogObserver(logger)
	}
	transport, err := llm.NewTransport(cfg.LLM, llmObserver)
	if err != nil {
		return closers, err
	}

	observer := service.NewSlogUseCaseObserver(logger)
	app.Tutor = service.NewTutorService(service.TutorConfig{
		Rules: rs,
		Activation: service.Activation{
			Flag:             cfg.ActivationFlag,
			DeactivationFlag: cfg.DeactivationFlag,
		},
		Scope:           cfg.Scope(),
		MaxGoBack:       cfg.Preferences.MaxGoBack,
		MaxImages:       cfg.Preferences.MaxImages,
		TextbookEnabled: cfg.ContextGathering.Enabled,
		Logger:          logger,
	}, historyRepo, prefsRepo, uow, transport, textbooks, observer)
	app.History = service.NewHistoryService(historyRepo)
	app.Preferences = service.NewPreferenceService(prefsRepo, observer)
	app.Rules = rs
	app.AutoAsk = cfg.Usage.AutomaticFirstQueryOnError
	app.Logger = logger

	return closers, nil
}
