package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS PRESENTER
// Ответ на /stats для администраторов.
// ══════════════════════════════════════════════════════════════════════════════

// Statistics renders aggregate counts. An empty store gets a short notice.
func (p *RegistrationPresenter) Statistics(s registration.Statistics) *View {
	if s.IsEmpty() {
		return p.text("📭 Заявок пока нет!")
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>СТАТИСТИКА ЗАЯВОК</b>\n\n")
	for _, fc := range s.ByFaculty {
		sb.WriteString(fmt.Sprintf("🎓 %s: %d %s\n",
			p.escape(fc.Faculty), fc.Count, pluralize(fc.Count, "заявка", "заявки", "заявок")))
	}
	sb.WriteString(fmt.Sprintf("\n📈 Всего заявок: %d", s.Total))
	sb.WriteString(fmt.Sprintf("\n📅 Заявок сегодня: %d", s.Today))

	return p.text(sb.String())
}

// Unauthorized is the reply to /stats from a non-admin.
func (p *RegistrationPresenter) Unauthorized() *View {
	return p.text("⛔ У вас нет прав на просмотр статистики.")
}

// RateLimited asks the registrant to slow down.
func (p *RegistrationPresenter) RateLimited(retryAfter time.Duration) *View {
	secs := int(retryAfter.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return p.text(fmt.Sprintf("⏳ Слишком много запросов! Подождите %d %s.",
		secs, pluralize(secs, "секунду", "секунды", "секунд")))
}

// pluralize возвращает правильную форму слова для числа.
func pluralize(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}

	mod10 := n % 10
	mod100 := n % 100

	if mod100 >= 11 && mod100 <= 19 {
		return many
	}

	switch mod10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	default:
		return many
	}
}
