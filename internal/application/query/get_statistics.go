// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATISTICS QUERY
// Сводка по заявкам: всего, по факультетам (по убыванию) и за сегодня.
// ══════════════════════════════════════════════════════════════════════════════

// StatisticsCache хранит недавно посчитанную статистику.
type StatisticsCache interface {
	Get(ctx context.Context, day string) (registration.Statistics, bool, error)
	Set(ctx context.Context, day string, s registration.Statistics) error
	Invalidate(ctx context.Context) error
}

// StatisticsResult - результат запроса статистики.
type StatisticsResult struct {
	registration.Statistics

	// Day - день, за который посчитано поле Today.
	Day string

	// FromCache - true, если данные взяты из кеша.
	FromCache bool

	GeneratedAt time.Time
}

// GetStatisticsHandler обрабатывает запрос статистики.
type GetStatisticsHandler struct {
	repo   registration.Repository
	cache  StatisticsCache
	clock  *timeutil.Clock
	logger *slog.Logger
}

// NewGetStatisticsHandler создаёт обработчик. cache может быть nil.
func NewGetStatisticsHandler(repo registration.Repository, cache StatisticsCache, clock *timeutil.Clock, logger *slog.Logger) *GetStatisticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStatisticsHandler{repo: repo, cache: cache, clock: clock, logger: logger}
}

// Handle выполняет запрос.
func (h *GetStatisticsHandler) Handle(ctx context.Context) (*StatisticsResult, error) {
	now := h.clock.Now()
	day := now.Format(timeutil.FormatDate)

	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, day)
		if err != nil {
			h.logger.Warn("statistics cache read failed", slog.String("error", err.Error()))
		} else if ok {
			return &StatisticsResult{Statistics: cached, Day: day, FromCache: true, GeneratedAt: now}, nil
		}
	}

	total, err := h.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total: %w", err)
	}

	stats := registration.Statistics{Total: total}
	if total > 0 {
		if stats.ByFaculty, err = h.repo.CountByFaculty(ctx); err != nil {
			return nil, fmt.Errorf("failed to get faculty counts: %w", err)
		}
		if stats.Today, err = h.repo.CountOnDay(ctx, day); err != nil {
			return nil, fmt.Errorf("failed to get today's count: %w", err)
		}
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, day, stats); err != nil {
			h.logger.Warn("statistics cache write failed", slog.String("error", err.Error()))
		}
	}

	return &StatisticsResult{Statistics: stats, Day: day, GeneratedAt: now}, nil
}

// Invalidate сбрасывает кеш после сохранения новой заявки.
func (h *GetStatisticsHandler) Invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("statistics cache invalidation failed", slog.String("error", err.Error()))
	}
}
