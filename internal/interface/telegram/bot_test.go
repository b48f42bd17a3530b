package telegram

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/application/query"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/internal/infrastructure/external/telegram"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
)

// ─── fakes ───

type sentMessage struct {
	chatID    int64
	messageID int64
	text      string
	keyboard  *telegram.InlineKeyboardMarkup
	edited    bool
}

type fakeMessenger struct {
	mu       sync.Mutex
	messages []sentMessage
	answers  []string
	editErr  error
}

func (f *fakeMessenger) SendMessage(_ context.Context, p telegram.SendMessageParams) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: p.ChatID, text: p.Text, keyboard: p.ReplyMarkup})
	return &telegram.Message{MessageID: int64(len(f.messages))}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, chatID, messageID int64, text, _ string, kb *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.messages = append(f.messages, sentMessage{chatID: chatID, messageID: messageID, text: text, keyboard: kb, edited: true})
	return &telegram.Message{MessageID: messageID}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, id, _ string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, id)
	return nil
}

func (f *fakeMessenger) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type fakeCommitter struct {
	drafts []registration.Draft
}

func (c *fakeCommitter) Commit(_ context.Context, d registration.Draft) (*registration.Receipt, error) {
	c.drafts = append(c.drafts, d)
	return &registration.Receipt{Submission: registration.Submission{ID: 1, Faculty: d.Faculty}}, nil
}

type fakeStatistics struct{}

func (fakeStatistics) Handle(context.Context) (*query.StatisticsResult, error) {
	return &query.StatisticsResult{Statistics: registration.Statistics{
		Total: 2,
		Today: 1,
		ByFaculty: []registration.FacultyCount{
			{Faculty: "ФПМИ", Count: 2},
		},
	}}, nil
}

type panickingEngine struct{}

func (panickingEngine) Handle(context.Context, string, conversation.Event) (conversation.Reply, error) {
	panic("boom")
}

func newTestBot(t *testing.T, engine func(*fakeCommitter) conversation.Committer) (*Bot, *fakeMessenger, *fakeCommitter) {
	t.Helper()
	catalog := registration.MustDefaultCatalog()
	committer := &fakeCommitter{}
	eng, err := conversation.NewEngine(conversation.EngineConfig{
		Config:    conversation.Config{Catalog: catalog},
		Committer: engine(committer),
	})
	require.NoError(t, err)

	messenger := &fakeMessenger{}
	cfg := DefaultBotConfig()
	cfg.AdminUsernames = []string{"@Dean"}
	bot, err := NewBot(cfg, BotDependencies{
		Messenger:  messenger,
		Engine:     eng,
		Statistics: fakeStatistics{},
		Presenter:  presenter.NewRegistrationPresenter(catalog),
	})
	require.NoError(t, err)
	return bot, messenger, committer
}

func defaultCommitter(c *fakeCommitter) conversation.Committer { return c }

func command(from *telegram.User, text string) *telegram.Update {
	n := len(text)
	for i, r := range text {
		if r == ' ' {
			n = i
			break
		}
	}
	return &telegram.Update{Message: &telegram.Message{
		MessageID: 10,
		From:      from,
		Chat:      &telegram.Chat{ID: from.ID, Type: "private"},
		Text:      text,
		Entities:  []telegram.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}}
}

func text(from *telegram.User, s string) *telegram.Update {
	return &telegram.Update{Message: &telegram.Message{
		MessageID: 11,
		From:      from,
		Chat:      &telegram.Chat{ID: from.ID, Type: "private"},
		Text:      s,
	}}
}

func callback(from *telegram.User, data string) *telegram.Update {
	return &telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb-" + data,
		From: from,
		Data: data,
		Message: &telegram.Message{
			MessageID: 99,
			Chat:      &telegram.Chat{ID: from.ID, Type: "private"},
		},
	}}
}

// ─── tests ───

func TestNewBot_RequiresDependencies(t *testing.T) {
	_, err := NewBot(DefaultBotConfig(), BotDependencies{})
	assert.Error(t, err)
}

func TestBot_RegistrationFlow(t *testing.T) {
	bot, messenger, committer := newTestBot(t, defaultCommitter)
	ctx := context.Background()
	user := &telegram.User{ID: 7, FirstName: "Ольга", Username: "olga"}

	require.NoError(t, bot.Dispatch(ctx, command(user, "/start")))
	assert.Contains(t, messenger.last(t).text, "Здравствуйте, Ольга!")

	require.NoError(t, bot.Dispatch(ctx, text(user, "Ольга Иванова")))
	kb := messenger.last(t).keyboard
	require.NotNil(t, kb)
	assert.Len(t, kb.InlineKeyboard, 9)

	require.NoError(t, bot.Dispatch(ctx, callback(user, "fac:4")))
	last := messenger.last(t)
	assert.True(t, last.edited)
	assert.Equal(t, int64(99), last.messageID)
	assert.Contains(t, last.text, "ФПМИ")

	require.NoError(t, bot.Dispatch(ctx, callback(user, "part:yes")))
	require.NoError(t, bot.Dispatch(ctx, text(user, "+375291112233")))
	require.NoError(t, bot.Dispatch(ctx, text(user, "Брест")))

	photo := text(user, "")
	photo.Message.Photo = []telegram.PhotoSize{{FileID: "small"}, {FileID: "large"}}
	require.NoError(t, bot.Dispatch(ctx, photo))
	assert.Contains(t, messenger.last(t).text, "а не фотографию")

	doc := text(user, "")
	doc.Message.Document = &telegram.Document{FileID: "doc-1", FileName: "motivation.docx"}
	require.NoError(t, bot.Dispatch(ctx, doc))
	assert.Contains(t, messenger.last(t).text, "📄 Формат: .DOCX")

	require.NoError(t, bot.Dispatch(ctx, callback(user, "confirm:yes")))
	assert.Contains(t, messenger.last(t).text, "Регистрация успешно завершена")

	require.Len(t, committer.drafts, 1)
	assert.Equal(t, "ФПМИ", committer.drafts[0].Faculty)
	assert.Equal(t, "doc-1", committer.drafts[0].Document.FileID)

	messenger.mu.Lock()
	assert.Len(t, messenger.answers, 3)
	messenger.mu.Unlock()

	stats := bot.GetStats()
	assert.Equal(t, int64(9), stats["updates_handled"])
	assert.Equal(t, int64(0), stats["errors_count"])
}

func TestBot_StatsRequiresAdmin(t *testing.T) {
	bot, messenger, _ := newTestBot(t, defaultCommitter)
	ctx := context.Background()

	require.NoError(t, bot.Dispatch(ctx, command(&telegram.User{ID: 1, Username: "student"}, "/stats")))
	assert.Contains(t, messenger.last(t).text, "У вас нет прав")

	require.NoError(t, bot.Dispatch(ctx, command(&telegram.User{ID: 2, Username: "dean"}, "/stats")))
	got := messenger.last(t).text
	assert.Contains(t, got, "СТАТИСТИКА ЗАЯВОК")
	assert.Contains(t, got, "🎓 ФПМИ: 2 заявки")
}

func TestBot_UnknownCommand(t *testing.T) {
	bot, messenger, _ := newTestBot(t, defaultCommitter)

	require.NoError(t, bot.Dispatch(context.Background(), command(&telegram.User{ID: 3}, "/unknown")))
	assert.Contains(t, messenger.last(t).text, "Неизвестная команда")
}

func TestBot_TextWithoutSession(t *testing.T) {
	bot, messenger, _ := newTestBot(t, defaultCommitter)

	require.NoError(t, bot.Dispatch(context.Background(), text(&telegram.User{ID: 4}, "привет")))
	assert.Contains(t, messenger.last(t).text, "/start")
}

func TestBot_EditFallsBackToSend(t *testing.T) {
	bot, messenger, _ := newTestBot(t, defaultCommitter)
	ctx := context.Background()
	user := &telegram.User{ID: 5, FirstName: "Пётр"}

	require.NoError(t, bot.Dispatch(ctx, command(user, "/start")))
	require.NoError(t, bot.Dispatch(ctx, text(user, "Пётр Сидоров")))

	messenger.editErr = &telegram.APIError{Code: 400, Description: "Bad Request: message to edit not found"}
	require.NoError(t, bot.Dispatch(ctx, callback(user, "fac:0")))

	last := messenger.last(t)
	assert.False(t, last.edited)
	assert.Contains(t, last.text, "РФиКТ")
}

func TestBot_RecoversFromPanic(t *testing.T) {
	catalog := registration.MustDefaultCatalog()
	messenger := &fakeMessenger{}
	bot, err := NewBot(DefaultBotConfig(), BotDependencies{
		Messenger:  messenger,
		Engine:     panickingEngine{},
		Statistics: fakeStatistics{},
		Presenter:  presenter.NewRegistrationPresenter(catalog),
	})
	require.NoError(t, err)

	err = bot.Dispatch(context.Background(), command(&telegram.User{ID: 6}, "/start"))
	require.Error(t, err)
	assert.Contains(t, messenger.last(t).text, "Произошла ошибка")
	assert.Equal(t, int64(1), bot.GetStats()["panics_count"])
}

func TestBot_RateLimited(t *testing.T) {
	bot, messenger, _ := newTestBot(t, defaultCommitter)
	ctx := context.Background()
	user := &telegram.User{ID: 8}

	burst := DefaultBotConfig().RateLimit.BurstSize
	for i := 0; i < burst; i++ {
		require.NoError(t, bot.Dispatch(ctx, command(user, "/help")))
	}
	require.NoError(t, bot.Dispatch(ctx, command(user, "/help")))
	assert.Contains(t, messenger.last(t).text, "Слишком много запросов")
}

func TestBot_IgnoresBotsAndEmptyUpdates(t *testing.T) {
	bot, messenger, _ := newTestBot(t, defaultCommitter)
	ctx := context.Background()

	require.NoError(t, bot.Dispatch(ctx, &telegram.Update{UpdateID: 1}))
	require.NoError(t, bot.Dispatch(ctx, command(&telegram.User{ID: 9, IsBot: true}, "/start")))

	messenger.mu.Lock()
	defer messenger.mu.Unlock()
	assert.Empty(t, messenger.messages)
}

func TestBot_StopWhenNotRunning(t *testing.T) {
	bot, _, _ := newTestBot(t, defaultCommitter)
	assert.NoError(t, bot.Stop(context.Background()))
	assert.False(t, bot.IsRunning())
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, "", commandArgs("/start"))
	assert.Equal(t, "a b", commandArgs("/start a b"))
}

func TestBot_StartWithoutClient(t *testing.T) {
	bot, _, _ := newTestBot(t, defaultCommitter)
	err := bot.Start(context.Background())
	require.Error(t, err)
	assert.False(t, bot.IsRunning())
}
