package presenter

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION PRESENTER
// Превращает семантические подсказки анкеты в текст и клавиатуры Telegram.
// Все пользовательские значения проходят через bluemonday перед вставкой в HTML.
// ══════════════════════════════════════════════════════════════════════════════

// ParseModeHTML is the Bot API parse mode of every rendered view.
const ParseModeHTML = "HTML"

// DefaultFirstName is used in the greeting when Telegram sent no first name.
const DefaultFirstName = "друг"

// View is a rendered outbound message.
type View struct {
	// Text - текст сообщения (HTML).
	Text string

	// Keyboard - inline-клавиатура, может быть nil.
	Keyboard *InlineKeyboard

	// ParseMode - режим парсинга.
	ParseMode string
}

// RegistrationPresenter renders conversation prompts.
type RegistrationPresenter struct {
	catalog   *registration.Catalog
	keyboards *KeyboardBuilder
	sanitizer *bluemonday.Policy
}

// NewRegistrationPresenter creates a presenter for the given catalog.
func NewRegistrationPresenter(catalog *registration.Catalog) *RegistrationPresenter {
	return &RegistrationPresenter{
		catalog:   catalog,
		keyboards: NewKeyboardBuilder(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Render turns a prompt into a message. PromptNone yields nil.
func (p *RegistrationPresenter) Render(pr conversation.Prompt) *View {
	d := pr.Draft

	switch pr.Kind {
	case conversation.PromptWelcome:
		first := d.Registrant.FirstName
		if strings.TrimSpace(first) == "" {
			first = DefaultFirstName
		}
		return p.text(fmt.Sprintf(
			"👋 Здравствуйте, %s!\n\n"+
				"Добро пожаловать в систему регистрации!\n\n"+
				"Я помогу вам подать заявку. Для начала, пожалуйста, "+
				"введите ваше ФИО (полностью):\n\n"+
				"📱 Ваш Telegram: %s",
			p.escape(first), p.escape(d.Registrant.Handle()),
		))

	case conversation.PromptAskName:
		return p.text("✍️ Пожалуйста, введите ваше ФИО (полностью):")

	case conversation.PromptAskFaculty:
		return p.withKeyboard("🎓 Выберите желаемый факультет:", p.keyboards.FacultyKeyboard(p.catalog.Faculties()))

	case conversation.PromptAskParticipation:
		return p.withKeyboard(fmt.Sprintf(
			"✅ Выбран факультет: %s\n\n📋 Участвовали ли вы в этом проекте раньше?",
			p.escape(d.Faculty),
		), p.keyboards.ParticipationKeyboard())

	case conversation.PromptAskPhone:
		return p.text("📞 Пожалуйста, введите ваш номер телефона:")

	case conversation.PromptAskCity:
		return p.text("🏙️ Пожалуйста, введите ваш город проживания:")

	case conversation.PromptAskDocument:
		return p.text(p.askDocument(pr.Reason))

	case conversation.PromptWrongExtension:
		return p.text(fmt.Sprintf(
			"❌ Неверный формат файла!\n"+
				"Вы отправили: %s (формат %s)\n\n"+
				"📎 Разрешенные форматы: %s\n"+
				"Пожалуйста, прикрепите файл в одном из этих форматов.",
			p.escape(pr.FileName), p.escape(strings.ToUpper(pr.Extension)), p.AllowedFormats(),
		))

	case conversation.PromptSummary:
		return p.withKeyboard(p.summary(d), p.keyboards.ConfirmationKeyboard())

	case conversation.PromptCommitted:
		return p.text("🎉 Регистрация успешно завершена!\n\n" +
			"✅ Ваша заявка сохранена.\n" +
			"📁 Файл мотивационного письма загружен.\n\n" +
			"Спасибо за участие! О результатах вам сообщат.")

	case conversation.PromptCommitFailed:
		return p.text("⚠️ Произошла ошибка при сохранении данных. " +
			"Пожалуйста, попробуйте снова или обратитесь к администратору.")

	case conversation.PromptCancelled:
		return p.text("❌ Регистрация отменена. Чтобы начать заново, отправьте /start")

	case conversation.PromptNoSession:
		return p.text("ℹ️ Чтобы начать регистрацию, отправьте /start")
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// STATIC MESSAGES
// ─────────────────────────────────────────────────────────────────────────────

// Help renders the /help text.
func (p *RegistrationPresenter) Help() *View {
	return p.text(fmt.Sprintf(
		"📋 Доступные команды:\n\n"+
			"/start - начать регистрацию\n"+
			"/help - показать это сообщение\n"+
			"/stats - показать статистику заявок (только для администраторов)\n\n"+
			"📝 Информация о регистрации:\n"+
			"1. Бот автоматически определит ваш Telegram\n"+
			"2. Принимаются только файлы: %s\n"+
			"3. Фотографии не принимаются\n\n"+
			"Во время регистрации вы можете отправить /cancel для отмены.",
		p.AllowedFormats(),
	))
}

// UnknownCommand renders the reply to an unregistered command.
func (p *RegistrationPresenter) UnknownCommand() *View {
	return p.text("🤔 Неизвестная команда. Отправьте /help, чтобы увидеть список команд.")
}

// Error renders the generic failure reply.
func (p *RegistrationPresenter) Error() *View {
	return p.text("😔 Произошла ошибка. Попробуйте позже.")
}

// AllowedFormats lists the allowed extensions upper-cased, e.g. ".PDF, .DOC".
func (p *RegistrationPresenter) AllowedFormats() string {
	exts := p.catalog.Extensions()
	for i, e := range exts {
		exts[i] = strings.ToUpper(e)
	}
	return strings.Join(exts, ", ")
}

// ─────────────────────────────────────────────────────────────────────────────
// HELPERS
// ─────────────────────────────────────────────────────────────────────────────

func (p *RegistrationPresenter) askDocument(reason conversation.RejectReason) string {
	switch reason {
	case conversation.RejectPhoto:
		return "⚠️ Пожалуйста, прикрепите файл (документ), а не фотографию.\n" +
			"📎 Разрешенные форматы: " + p.AllowedFormats()
	case conversation.RejectNotDocument:
		return "⚠️ Пожалуйста, прикрепите файл (документ).\n" +
			"📎 Разрешенные форматы: " + p.AllowedFormats()
	}
	return "📄 Пожалуйста, прикрепите файл с мотивационным письмом\n\n" +
		"📎 Разрешенные форматы: " + p.AllowedFormats() + "\n" +
		"⛔ Фотографии не принимаются!"
}

func (p *RegistrationPresenter) summary(d registration.Draft) string {
	var sb strings.Builder

	sb.WriteString("📋 Пожалуйста, проверьте введенные данные:\n\n")
	sb.WriteString(fmt.Sprintf("👤 ФИО: %s\n", p.escape(d.FullName)))
	sb.WriteString(fmt.Sprintf("🎓 Факультет: %s\n", p.escape(d.Faculty)))
	sb.WriteString(fmt.Sprintf("📝 Участвовал ранее: %s\n", d.Participated))
	sb.WriteString(fmt.Sprintf("📱 Telegram: %s\n", p.escape(d.Registrant.Handle())))
	sb.WriteString(fmt.Sprintf("📞 Телефон: %s\n", p.escape(d.Phone)))
	sb.WriteString(fmt.Sprintf("🏙️ Город: %s\n", p.escape(d.City)))
	sb.WriteString(fmt.Sprintf("📎 Файл: %s\n", p.escape(d.Document.FileName)))
	sb.WriteString(fmt.Sprintf("📄 Формат: %s", p.escape(strings.ToUpper(d.Document.Extension))))

	return sb.String()
}

// escape shows a user-supplied value literally: tag-like text is turned into
// entities first, so the strict policy keeps it as text instead of dropping it.
func (p *RegistrationPresenter) escape(s string) string {
	return p.sanitizer.Sanitize(html.EscapeString(s))
}

func (p *RegistrationPresenter) text(s string) *View {
	return &View{Text: s, ParseMode: ParseModeHTML}
}

func (p *RegistrationPresenter) withKeyboard(s string, kb *InlineKeyboard) *View {
	return &View{Text: s, Keyboard: kb, ParseMode: ParseModeHTML}
}
