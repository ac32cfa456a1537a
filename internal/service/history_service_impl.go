package service

import (
	"context"

	"github.com/alexanderramin/jupytutor/internal/chat"
	"github.com/alexanderramin/jupytutor/internal/repository"
)

type historyService struct {
	history repository.HistoryRepo
}

func NewHistoryService(history repository.HistoryRepo) HistoryService {
	return &historyService{history: history}
}

func (s *historyService) List(ctx context.Context, notebookPath, cellID string) ([]chat.Message, error) {
	return s.history.List(ctx, repository.Thread{NotebookPath: notebookPath, CellID: cellID})
}

func (s *historyService) Threads(ctx context.Context, notebookPath string) ([]repository.ThreadSummary, error) {
	return s.history.ListThreads(ctx, notebookPath)
}

func (s *historyService) Clear(ctx context.Context, notebookPath, cellID string) (int, error) {
	return s.history.Clear(ctx, repository.Thread{NotebookPath: notebookPath, CellID: cellID})
}
