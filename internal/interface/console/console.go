// Package console implements the operator console: a statistics table, the
// spreadsheet export and the interactive main menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/alem-hub/applications-bot/internal/application/command"
	"github.com/alem-hub/applications-bot/internal/application/query"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

const (
	wideRule   = 60
	narrowRule = 40
)

// StatisticsQuery is the read side used by the statistics printer.
type StatisticsQuery interface {
	Handle(ctx context.Context) (*query.StatisticsResult, error)
}

// ExportCommand writes the spreadsheet.
type ExportCommand interface {
	Handle(ctx context.Context, cmd command.ExportSubmissionsCommand) (*command.ExportSubmissionsResult, error)
}

// Config holds console dependencies.
type Config struct {
	In  io.Reader
	Out io.Writer

	Statistics StatisticsQuery
	Export     ExportCommand

	// RunBot blocks while the bot is running. Without it menu item 1
	// reports an error.
	RunBot func(ctx context.Context) error

	// ExportPath is passed to Export; empty means the default file name.
	ExportPath string

	Logger *slog.Logger
}

// Console is the operator console.
type Console struct {
	in         *bufio.Reader
	out        io.Writer
	stats      StatisticsQuery
	export     ExportCommand
	runBot     func(ctx context.Context) error
	exportPath string
	logger     *slog.Logger
}

// New creates a console.
func New(cfg Config) *Console {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Console{
		in:         bufio.NewReader(cfg.In),
		out:        cfg.Out,
		stats:      cfg.Statistics,
		export:     cfg.Export,
		runBot:     cfg.RunBot,
		exportPath: cfg.ExportPath,
		logger:     cfg.Logger.With(slog.String("component", "console")),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// PrintStatistics prints per-faculty counts, the total and today's count.
func (c *Console) PrintStatistics(ctx context.Context) error {
	res, err := c.stats.Handle(ctx)
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}
	RenderStatistics(c.out, res.Statistics)
	return nil
}

// RenderStatistics writes s as a table.
func RenderStatistics(w io.Writer, s registration.Statistics) {
	if s.IsEmpty() {
		fmt.Fprintln(w, "📭 Заявок пока нет!")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("СТАТИСТИКА ЗАЯВОК")
	tw.AppendHeader(table.Row{"Факультет", "Заявок"})
	for _, fc := range s.ByFaculty {
		tw.AppendRow(table.Row{"🎓 " + fc.Faculty, fc.Count})
	}
	tw.AppendFooter(table.Row{"📈 Всего заявок", s.Total})
	tw.AppendFooter(table.Row{"📅 Заявок сегодня", s.Today})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.Style().Title.Align = text.AlignCenter
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.Render()
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT
// ══════════════════════════════════════════════════════════════════════════════

// Export writes the spreadsheet to path (empty: the configured default).
func (c *Console) Export(ctx context.Context, path string) error {
	if path == "" {
		path = c.exportPath
	}

	res, err := c.export.Handle(ctx, command.ExportSubmissionsCommand{Path: path})
	if errors.Is(err, command.ErrNothingToExport) {
		fmt.Fprintln(c.out, "❌ Нет данных для экспорта")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n✅ Данные экспортированы в %s\n", res.Path)
	fmt.Fprintf(c.out, "📊 Всего заявок в экспорте: %d\n", res.Count)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN MENU
// ══════════════════════════════════════════════════════════════════════════════

// PrintHeader prints the program title shown above the menu.
func (c *Console) PrintHeader() {
	rule := strings.Repeat("=", wideRule)
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out, center("🤖 ТЕЛЕГРАМ БОТ ДЛЯ СБОРА ЗАЯВОК", wideRule))
	fmt.Fprintln(c.out, rule)
}

// PrintBotBanner prints the startup banner with a masked token.
func PrintBotBanner(w io.Writer, maskedToken string) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "🤖 TELEGRAM БОТ ДЛЯ СБОРА ЗАЯВОК")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "🔑 Токен: %s\n", maskedToken)
	fmt.Fprintln(w, "🔄 Запуск бота...")
	fmt.Fprintln(w, "📱 Откройте Telegram и найдите вашего бота")
	fmt.Fprintln(w, "📝 Отправьте команду /start для начала регистрации")
	fmt.Fprintln(w, rule)
}

func (c *Console) printMenu() {
	rule := strings.Repeat("=", narrowRule)
	fmt.Fprintln(c.out, "\n"+rule)
	fmt.Fprintln(c.out, "ГЛАВНОЕ МЕНЮ")
	fmt.Fprintln(c.out, rule)
	fmt.Fprintln(c.out, "1. 🚀 Запустить бота")
	fmt.Fprintln(c.out, "2. 📊 Просмотреть статистику заявок")
	fmt.Fprintln(c.out, "3. 📁 Экспортировать данные в Excel")
	fmt.Fprintln(c.out, "4. ❌ Выйти")
	fmt.Fprintln(c.out, rule)
	fmt.Fprint(c.out, "Выберите действие (1-4): ")
}

// RunMenu shows the main menu until the operator quits, input ends or ctx
// is cancelled. Errors of individual actions are printed and the menu goes on.
func (c *Console) RunMenu(ctx context.Context) error {
	c.PrintHeader()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		c.printMenu()
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out, "\n👋 До свидания!")
				return nil
			}
			return fmt.Errorf("read choice: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "1":
			if err := c.startBot(ctx); err != nil {
				fmt.Fprintf(c.out, "❌ Ошибка при запуске бота: %v\n", err)
			} else {
				fmt.Fprintln(c.out, "\n👋 Бот остановлен")
			}
		case "2":
			if err := c.PrintStatistics(ctx); err != nil {
				c.logger.Error("statistics failed", slog.String("error", err.Error()))
				fmt.Fprintf(c.out, "❌ Ошибка: %v\n", err)
			}
		case "3":
			if err := c.Export(ctx, ""); err != nil {
				c.logger.Error("export failed", slog.String("error", err.Error()))
				fmt.Fprintf(c.out, "❌ Ошибка: %v\n", err)
			}
		case "4":
			fmt.Fprintln(c.out, "👋 До свидания!")
			return nil
		default:
			fmt.Fprintln(c.out, "❌ Неверный выбор. Попробуйте снова.")
		}
	}
}

func (c *Console) startBot(ctx context.Context) error {
	if c.runBot == nil {
		return errors.New("bot is not configured")
	}
	return c.runBot(ctx)
}

// center left-pads s so it sits in the middle of width columns.
func center(s string, width int) string {
	n := text.RuneWidthWithoutEscSequences(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}
