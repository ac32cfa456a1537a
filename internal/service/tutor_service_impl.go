package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/db"
	"github.com/alexanderramin/jupytutor/internal/notebook"
	"github.com/alexanderramin/jupytutor/internal/repository"
	"github.com/alexanderramin/jupytutor/internal/rules"
	"github.com/alexanderramin/jupytutor/internal/textbook"
	"github.com/alexanderramin/jupytutor/internal/window"
)

// AutoFirstMessage stands in for the student's question when the first
// query of a thread is sent without text.
const AutoFirstMessage = "This is my current attempt at the question. " +
	"Focus on providing concise and accurate feedback that promotes understanding."

// TutorConfig holds the settings TutorService needs from configuration.
type TutorConfig struct {
	Rules      rules.RuleSet
	Activation Activation

	Scope           window.Scope
	MaxGoBack       int
	MaxImages       int
	TextbookEnabled bool

	// Logger receives degraded-path warnings. Nil discards them.
	Logger *slog.Logger
}

type tutorService struct {
	cfg       TutorConfig
	history   repository.HistoryRepo
	prefs     repository.PreferenceRepo
	uow       db.UnitOfWork
	transport chat.Transport
	textbooks TextbookSource
	observer  UseCaseObserver
}

// NewTutorService wires the decision and conversation flow. textbooks may
// be nil when context gathering is off.
func NewTutorService(
	cfg TutorConfig,
	history repository.HistoryRepo,
	prefs repository.PreferenceRepo,
	uow db.UnitOfWork,
	transport chat.Transport,
	textbooks TextbookSource,
	observers ...UseCaseObserver,
) TutorService {
	if cfg.Scope == "" {
		cfg.Scope = window.DefaultScope
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &tutorService{
		cfg:       cfg,
		history:   history,
		prefs:     prefs,
		uow:       uow,
		transport: transport,
		textbooks: textbooks,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *tutorService) checkCell(nb *notebook.Notebook, cellIndex int) error {
	if cellIndex < 0 || cellIndex >= len(nb.Cells) {
		return fmt.Errorf("%w: %d (notebook has %d cells)", ErrCellOutOfRange, cellIndex, len(nb.Cells))
	}
	if !s.cfg.Activation.Active(nb) {
		return fmt.Errorf("%s: %w", nb.Path, ErrNotebookInactive)
	}
	return nil
}

func (s *tutorService) Decide(ctx context.Context, nb *notebook.Notebook, cellIndex int) (d Decision, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"notebook": nb.Path, "cell": cellIndex}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "decide",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if err = s.checkCell(nb, cellIndex); err != nil {
		return Decision{}, err
	}

	var prefs repository.Preferences
	prefs, err = s.prefs.Get(ctx, nb.Path)
	if err != nil {
		return Decision{}, fmt.Errorf("loading preferences: %w", err)
	}

	d = s.decide(nb, cellIndex, prefs)
	fields["chat_enabled"] = d.Config.ChatEnabled
	fields["proactive"] = d.Proactive
	fields["matched_rules"] = len(d.Matched)
	return d, nil
}

func (s *tutorService) decide(nb *notebook.Notebook, cellIndex int, prefs repository.Preferences) Decision {
	cfg, matched := rules.Explain(s.cfg.Rules, cellIndex, nb.Cells)
	return Decision{
		CellIndex: cellIndex,
		CellID:    nb.Cells[cellIndex].ID,
		Config:    cfg,
		Matched:   matched,
		Proactive: cfg.ChatProactive && prefs.ProactiveEnabled,
	}
}

func (s *tutorService) DecideAll(ctx context.Context, nb *notebook.Notebook) ([]Decision, error) {
	if !s.cfg.Activation.Active(nb) {
		return nil, fmt.Errorf("%s: %w", nb.Path, ErrNotebookInactive)
	}
	prefs, err := s.prefs.Get(ctx, nb.Path)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	out := make([]Decision, len(nb.Cells))
	for i := range nb.Cells {
		out[i] = s.decide(nb, i, prefs)
	}
	return out, nil
}

func (s *tutorService) BuildContext(ctx context.Context, nb *notebook.Notebook, cellIndex int, opts ContextOptions) (bundle *ContextBundle, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"notebook": nb.Path, "cell": cellIndex}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "build-context",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	if err = s.checkCell(nb, cellIndex); err != nil {
		return nil, err
	}

	scope := opts.Scope
	if scope == "" {
		scope = s.cfg.Scope
	}
	includeTextbook := s.cfg.TextbookEnabled
	if opts.IncludeTextbook != nil {
		includeTextbook = *opts.IncludeTextbook
	}

	cells := window.SelectWindow(nb.Cells, cellIndex, scope)

	var text string
	var sources []string
	if includeTextbook && s.textbooks != nil {
		r := s.textbooks.ForNotebook(nb)
		sources = r.SourceLinks()
		text = textbook.ContextOrEmpty(ctx, r, s.cfg.Logger)
	}

	resolved := rules.Resolve(s.cfg.Rules, cellIndex, nb.Cells)
	var note *string
	if resolved.InstructorNote != "" {
		note = &resolved.InstructorNote
	}

	bundle = &ContextBundle{
		Window:          cells,
		Messages:        chat.MergeContext(cells, text, note),
		Images:          window.GatherImages(nb.Cells, cellIndex, s.maxGoBack(), s.maxImages()),
		TextbookSources: sources,
	}
	fields["scope"] = string(scope)
	fields["window_cells"] = len(cells)
	fields["images"] = len(bundle.Images)
	fields["textbook_chars"] = len(text)
	return bundle, nil
}

func (s *tutorService) maxGoBack() int {
	if s.cfg.MaxGoBack > 0 {
		return s.cfg.MaxGoBack
	}
	return window.DefaultMaxGoBack
}

func (s *tutorService) maxImages() int {
	if s.cfg.MaxImages > 0 {
		return s.cfg.MaxImages
	}
	return window.DefaultMaxImages
}

// CellThreadID is the history key for a cell: its nbformat id, or "#N"
// for cells saved without one.
func CellThreadID(nb *notebook.Notebook, cellIndex int) string {
	if id := nb.Cells[cellIndex].ID; id != "" {
		return id
	}
	return fmt.Sprintf("#%d", cellIndex)
}

func threadFor(nb *notebook.Notebook, cellIndex int) repository.Thread {
	return repository.Thread{NotebookPath: nb.Path, CellID: CellThreadID(nb, cellIndex)}
}

func (s *tutorService) Ask(ctx context.Context, nb *notebook.Notebook, cellIndex int, question string) (res *AskResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"notebook": nb.Path, "cell": cellIndex}
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "ask",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}()

	var decision Decision
	decision, err = s.Decide(ctx, nb, cellIndex)
	if err != nil {
		return nil, err
	}
	if !decision.Config.ChatEnabled {
		return nil, fmt.Errorf("cell %d: %w", cellIndex, ErrChatDisabled)
	}

	th := threadFor(nb, cellIndex)
	var past []chat.Message
	past, err = s.history.List(ctx, th)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	question = strings.TrimSpace(question)
	first := len(past) == 0
	fields["first_query"] = first

	var pending []chat.Message
	var images []string
	if first {
		var bundle *ContextBundle
		bundle, err = s.BuildContext(ctx, nb, cellIndex, ContextOptions{})
		if err != nil {
			return nil, err
		}
		pending = append(pending, bundle.Messages...)
		images = bundle.Images
		if question == "" {
			pending = append(pending, chat.NewMessage(chat.RoleUser, AutoFirstMessage, true))
		} else {
			pending = append(pending, chat.NewMessage(chat.RoleUser, question, false))
		}
	} else {
		if question == "" {
			return nil, ErrEmptyQuestion
		}
		pending = append(pending, chat.NewMessage(chat.RoleUser, question, false))
		images = window.GatherImages(nb.Cells, cellIndex, s.maxGoBack(), s.maxImages())
	}

	var added []chat.Message
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var txErr error
		added, txErr = repository.NewSQLiteHistoryRepo(tx).Append(ctx, th, pending...)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("saving question: %w", err)
	}

	req := chat.Request{
		NotebookPath: nb.Path,
		CellID:       th.CellID,
		CellKind:     nb.Cells[cellIndex].Kind,
		Messages:     append(past, added...),
		Images:       images,
	}
	fields["messages"] = len(req.Messages)
	fields["images"] = len(images)

	var reply chat.Message
	reply, err = s.transport.Send(ctx, req)
	if err != nil {
		// Drop this turn so the next attempt starts from the same state.
		if rbErr := s.forget(ctx, added); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return nil, fmt.Errorf("asking tutor: %w", err)
	}

	reply.Role = chat.RoleAssistant
	reply.Hidden = false
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		stored, txErr := repository.NewSQLiteHistoryRepo(tx).Append(ctx, th, reply)
		if txErr == nil {
			reply = stored[0]
		}
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("saving reply: %w", err)
	}

	return &AskResult{
		Decision:   decision,
		FirstQuery: first,
		Added:      added,
		Reply:      reply,
		Images:     len(images),
	}, nil
}

func (s *tutorService) forget(ctx context.Context, msgs []chat.Message) error {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	// Rollback must run even when ctx is already done.
	ctx = context.WithoutCancel(ctx)
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteHistoryRepo(tx).Delete(ctx, ids...)
	})
}
