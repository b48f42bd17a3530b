package handler

import (
	"context"
	"fmt"

	"github.com/alem-hub/applications-bot/internal/application/query"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// Handles /stats. Доступ проверяет auth middleware до вызова обработчика.
// ══════════════════════════════════════════════════════════════════════════════

// StatisticsQuery is the read side used by /stats.
type StatisticsQuery interface {
	Handle(ctx context.Context) (*query.StatisticsResult, error)
}

// StatsHandler handles the /stats command.
type StatsHandler struct {
	query     StatisticsQuery
	presenter *presenter.RegistrationPresenter
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(q StatisticsQuery, p *presenter.RegistrationPresenter) *StatsHandler {
	return &StatsHandler{query: q, presenter: p}
}

// Handle renders aggregate statistics.
func (h *StatsHandler) Handle(ctx context.Context) (*Response, error) {
	result, err := h.query.Handle(ctx)
	if err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}
	return ResponseFromView(h.presenter.Statistics(result.Statistics)), nil
}

// Unauthorized renders the refusal for non-admins.
func (h *StatsHandler) Unauthorized() *Response {
	return ResponseFromView(h.presenter.Unauthorized())
}
