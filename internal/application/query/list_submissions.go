package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// ListSubmissionsHandler возвращает все заявки, новые первыми.
type ListSubmissionsHandler struct {
	repo registration.Repository
}

// NewListSubmissionsHandler создаёт обработчик.
func NewListSubmissionsHandler(repo registration.Repository) *ListSubmissionsHandler {
	return &ListSubmissionsHandler{repo: repo}
}

// Handle выполняет запрос.
func (h *ListSubmissionsHandler) Handle(ctx context.Context) ([]registration.Submission, error) {
	subs, err := h.repo.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}
