package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/jupytutor/internal/cli/formatter"
	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/service"
)

const defaultDebounce = 300 * time.Millisecond

func newWatchCmd(app *App) *cobra.Command {
	var debounce time.Duration
	var autoAsk bool

	cmd := &cobra.Command{
		Use:   "watch <notebook.ipynb>",
		Short: "Re-resolve cells every time the notebook is saved",
		Long: "Watch a notebook and report cells whose output changed since the last\n" +
			"save, with their tutor decision. With --auto-ask (or\n" +
			"usage.automatic_first_query_on_error) a proactive cell that starts\n" +
			"failing gets a first tutor reply without being asked.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := notebookKey(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := &notebookWatcher{
				app:      app,
				path:     key,
				out:      cmd.OutOrStdout(),
				debounce: debounce,
				autoAsk:  app.AutoAsk || autoAsk,
				logger:   app.logger(),
				now:      app.now,
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Wait this long after the last write before re-reading")
	cmd.Flags().BoolVar(&autoAsk, "auto-ask", false, "Ask automatically when a proactive cell starts failing")
	return cmd
}

// cellState is what watch compares between saves.
type cellState struct {
	output    string
	hasError  bool
	enabled   bool
	proactive bool
}

// notebookWatcher re-resolves a notebook on every save. Jupyter writes a
// temp file and renames it, so the parent directory is watched and events
// are filtered by name.
type notebookWatcher struct {
	app      *App
	path     string
	out      io.Writer
	debounce time.Duration
	autoAsk  bool
	logger   *slog.Logger
	now      func() time.Time

	prev map[string]cellState
}

// Run blocks until ctx is done or the watcher fails.
func (w *notebookWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	if err := w.scan(ctx, true); err != nil {
		return err
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				fire = time.After(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("notebook watcher error", "path", w.path, "error", err)
		case <-fire:
			fire = nil
			if err := w.scan(ctx, false); err != nil {
				return err
			}
		}
	}
}

// scan reloads the notebook and reports changed cells. Parse errors from a
// half-written file are logged and skipped; the next write retries.
func (w *notebookWatcher) scan(ctx context.Context, initial bool) error {
	nb, err := notebook.LoadFile(w.path)
	if err != nil {
		if initial {
			return err
		}
		w.logger.Warn("skipping unreadable notebook", "path", w.path, "error", err)
		return nil
	}

	decisions, err := w.app.Tutor.DecideAll(ctx, nb)
	if errors.Is(err, service.ErrNotebookInactive) {
		fmt.Fprintf(w.out, "%s %s\n", w.stamp(), formatter.Dim("tutor is inactive for this notebook"))
		w.prev = nil
		return nil
	}
	if err != nil {
		return err
	}

	next := make(map[string]cellState, len(nb.Cells))
	enabled := 0
	for _, d := range decisions {
		c := nb.Cells[d.CellIndex]
		st := cellState{hasError: c.HasError, enabled: d.Config.ChatEnabled, proactive: d.Proactive}
		if c.OutputText != nil {
			st.output = *c.OutputText
		}
		if st.enabled {
			enabled++
		}
		id := service.CellThreadID(nb, d.CellIndex)
		next[id] = st

		if initial {
			continue
		}
		old, seen := w.prev[id]
		if seen && old == st {
			continue
		}
		w.report(nb, d)

		if w.autoAsk && d.Proactive && c.HasError && (!seen || !old.hasError || old.output != st.output) {
			w.ask(ctx, nb, d.CellIndex)
		}
	}
	w.prev = next

	if initial {
		fmt.Fprintf(w.out, "%s watching %s %s\n", w.stamp(), filepath.Base(w.path),
			formatter.Dim(fmt.Sprintf("(%d of %d cells have chat enabled)", enabled, len(nb.Cells))))
	}
	return nil
}

func (w *notebookWatcher) report(nb *notebook.Notebook, d service.Decision) {
	c := nb.Cells[d.CellIndex]
	detail := ""
	if c.OutputText != nil {
		detail = formatter.Snippet(*c.OutputText, 60)
	}
	if c.HasError {
		detail = formatter.StyleRed.Render(detail)
	} else {
		detail = formatter.Dim(detail)
	}
	fmt.Fprintf(w.out, "%s cell %d %s %s\n", w.stamp(), d.CellIndex, formatter.ChatBadge(d.Config, d.Proactive), detail)
}

func (w *notebookWatcher) ask(ctx context.Context, nb *notebook.Notebook, idx int) {
	res, err := w.app.Tutor.Ask(ctx, nb, idx, "")
	switch {
	case errors.Is(err, service.ErrEmptyQuestion):
		// The cell already has a conversation; leave it to the student.
		return
	case err != nil:
		w.logger.Warn("automatic first query failed", "cell", idx, "error", err)
		fmt.Fprintf(w.out, "%s %s\n", w.stamp(), formatter.StyleRed.Render("tutor unavailable: "+err.Error()))
		return
	}
	fmt.Fprint(w.out, formatter.FormatReply(res.Reply, res.FirstQuery, res.Images))
}

func (w *notebookWatcher) stamp() string {
	return formatter.Dim(w.now().Format("15:04:05"))
}
