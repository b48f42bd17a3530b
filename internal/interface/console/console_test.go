package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/applications-bot/internal/application/command"
	"github.com/alem-hub/applications-bot/internal/application/query"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

type stubStatistics struct {
	stats registration.Statistics
	err   error
}

func (s stubStatistics) Handle(context.Context) (*query.StatisticsResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &query.StatisticsResult{Statistics: s.stats}, nil
}

type stubExport struct {
	paths []string
	err   error
}

func (s *stubExport) Handle(_ context.Context, cmd command.ExportSubmissionsCommand) (*command.ExportSubmissionsResult, error) {
	s.paths = append(s.paths, cmd.Path)
	if s.err != nil {
		return nil, s.err
	}
	return &command.ExportSubmissionsResult{Path: "/tmp/" + cmd.Path, Count: 3}, nil
}

var sample = registration.Statistics{
	Total: 3,
	Today: 1,
	ByFaculty: []registration.FacultyCount{
		{Faculty: "ФПМИ", Count: 2},
		{Faculty: "МехМат", Count: 1},
	},
}

func newConsole(input string, stats stubStatistics, export *stubExport, runBot func(context.Context) error) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(Config{
		In:         strings.NewReader(input),
		Out:        out,
		Statistics: stats,
		Export:     export,
		RunBot:     runBot,
		ExportPath: "applications_summary.xlsx",
	}), out
}

func TestRenderStatistics(t *testing.T) {
	var buf bytes.Buffer
	RenderStatistics(&buf, sample)
	out := buf.String()

	assert.Contains(t, out, "СТАТИСТИКА ЗАЯВОК")
	assert.Contains(t, out, "🎓 ФПМИ")
	assert.Contains(t, out, "📈 Всего заявок")
	assert.Contains(t, out, "📅 Заявок сегодня")
	assert.Less(t, strings.Index(out, "ФПМИ"), strings.Index(out, "МехМат"))
}

func TestRenderStatistics_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderStatistics(&buf, registration.Statistics{})
	assert.Equal(t, "📭 Заявок пока нет!\n", buf.String())
}

func TestRunMenu_StatisticsThenExit(t *testing.T) {
	c, out := newConsole("2\n4\n", stubStatistics{stats: sample}, &stubExport{}, nil)

	require.NoError(t, c.RunMenu(context.Background()))
	assert.Contains(t, out.String(), "ГЛАВНОЕ МЕНЮ")
	assert.Contains(t, out.String(), "СТАТИСТИКА ЗАЯВОК")
	assert.True(t, strings.HasSuffix(out.String(), "👋 До свидания!\n"))
}

func TestRunMenu_Export(t *testing.T) {
	export := &stubExport{}
	c, out := newConsole("3\n4\n", stubStatistics{}, export, nil)

	require.NoError(t, c.RunMenu(context.Background()))
	assert.Equal(t, []string{"applications_summary.xlsx"}, export.paths)
	assert.Contains(t, out.String(), "✅ Данные экспортированы в /tmp/applications_summary.xlsx")
	assert.Contains(t, out.String(), "📊 Всего заявок в экспорте: 3")
}

func TestRunMenu_ExportNothing(t *testing.T) {
	c, out := newConsole("3\n4\n", stubStatistics{}, &stubExport{err: command.ErrNothingToExport}, nil)

	require.NoError(t, c.RunMenu(context.Background()))
	assert.Contains(t, out.String(), "❌ Нет данных для экспорта")
}

func TestRunMenu_InvalidChoiceAndEOF(t *testing.T) {
	c, out := newConsole("9\n", stubStatistics{}, &stubExport{}, nil)

	require.NoError(t, c.RunMenu(context.Background()))
	assert.Contains(t, out.String(), "❌ Неверный выбор. Попробуйте снова.")
	assert.Contains(t, out.String(), "👋 До свидания!")
}

func TestRunMenu_RunBot(t *testing.T) {
	calls := 0
	c, out := newConsole("1\n1\n4\n", stubStatistics{}, &stubExport{}, func(context.Context) error {
		calls++
		if calls == 2 {
			return errors.New("token rejected")
		}
		return nil
	})

	require.NoError(t, c.RunMenu(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Contains(t, out.String(), "👋 Бот остановлен")
	assert.Contains(t, out.String(), "❌ Ошибка при запуске бота: token rejected")
}

func TestRunMenu_StatisticsError(t *testing.T) {
	c, out := newConsole("2\n4\n", stubStatistics{err: errors.New("db down")}, &stubExport{}, nil)

	require.NoError(t, c.RunMenu(context.Background()))
	assert.Contains(t, out.String(), "db down")
}

func TestPrintBotBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBotBanner(&buf, "123456...abcd")
	assert.Contains(t, buf.String(), "🔑 Токен: 123456...abcd")
	assert.Contains(t, buf.String(), "/start")
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  ab", center("ab", 6))
	assert.Equal(t, "abcdef", center("abcdef", 4))
}
