package service

import (
	"context"
	"time"

	"github.com/alexanderramin/jupytutor/internal/repository"
)

type preferenceService struct {
	prefs    repository.PreferenceRepo
	observer UseCaseObserver
}

func NewPreferenceService(prefs repository.PreferenceRepo, observers ...UseCaseObserver) PreferenceService {
	return &preferenceService{prefs: prefs, observer: useCaseObserverOrNoop(observers)}
}

func (s *preferenceService) Get(ctx context.Context, notebookPath string) (repository.Preferences, error) {
	return s.prefs.Get(ctx, notebookPath)
}

func (s *preferenceService) SetProactive(ctx context.Context, notebookPath string, enabled bool) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "set-proactive",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"notebook": notebookPath, "enabled": enabled},
		})
	}()

	p, err := s.prefs.Get(ctx, notebookPath)
	if err != nil {
		return err
	}
	p.ProactiveEnabled = enabled
	return s.prefs.Upsert(ctx, p)
}
