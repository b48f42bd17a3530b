package presenter

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func sampleDraft() registration.Draft {
	return registration.Draft{
		Registrant:   registration.NewRegistrant(42, "ivan_p", "Иван"),
		ChatID:       42,
		FullName:     "Ivan Petrov",
		Faculty:      "ФПМИ",
		Participated: true,
		Phone:        "+375291234567",
		City:         "Минск",
		Document: registration.Document{
			FileID:    "file-1",
			FileName:  "essay.PDF",
			Extension: ".pdf",
		},
	}
}

func TestRender_Golden(t *testing.T) {
	p := NewRegistrationPresenter(registration.MustDefaultCatalog())
	d := sampleDraft()

	cases := map[string]conversation.Prompt{
		"welcome": {Kind: conversation.PromptWelcome, Draft: d},
		"welcome_anonymous": {Kind: conversation.PromptWelcome, Draft: registration.Draft{
			Registrant: registration.NewRegistrant(7, "", ""),
		}},
		"ask_participation":  {Kind: conversation.PromptAskParticipation, Draft: d},
		"ask_document":       {Kind: conversation.PromptAskDocument},
		"ask_document_photo": {Kind: conversation.PromptAskDocument, Reason: conversation.RejectPhoto},
		"wrong_extension": {
			Kind:      conversation.PromptWrongExtension,
			FileName:  "photo.jpg",
			Extension: ".jpg",
		},
		"summary": {Kind: conversation.PromptSummary, Draft: d},
	}

	g := newGolden(t)
	for name, prompt := range cases {
		t.Run(name, func(t *testing.T) {
			v := p.Render(prompt)
			require.NotNil(t, v)
			assert.Equal(t, ParseModeHTML, v.ParseMode)
			g.Assert(t, name, []byte(v.Text))
		})
	}
}

func TestRender_Keyboards(t *testing.T) {
	p := NewRegistrationPresenter(registration.MustDefaultCatalog())

	faculty := p.Render(conversation.Prompt{Kind: conversation.PromptAskFaculty})
	require.NotNil(t, faculty.Keyboard)
	require.Len(t, faculty.Keyboard.Rows, 9)
	assert.Equal(t, "ФПМИ", faculty.Keyboard.Rows[2][0].Text)
	assert.Equal(t, "fac:4", faculty.Keyboard.Rows[2][0].CallbackData)
	for _, row := range faculty.Keyboard.Rows {
		assert.Len(t, row, FacultyColumns)
	}

	summary := p.Render(conversation.Prompt{Kind: conversation.PromptSummary, Draft: sampleDraft()})
	require.NotNil(t, summary.Keyboard)
	assert.Equal(t, "confirm:yes", summary.Keyboard.Rows[0][0].CallbackData)
	assert.Equal(t, "confirm:no", summary.Keyboard.Rows[0][1].CallbackData)

	part := p.Render(conversation.Prompt{Kind: conversation.PromptAskParticipation, Draft: sampleDraft()})
	assert.Equal(t, "part:yes", part.Keyboard.Rows[0][0].CallbackData)

	assert.Nil(t, p.Render(conversation.Prompt{Kind: conversation.PromptAskPhone}).Keyboard)
	assert.Nil(t, p.Render(conversation.Prompt{Kind: conversation.PromptNone}))
}

func TestFacultyKeyboard_OddCount(t *testing.T) {
	kb := NewKeyboardBuilder().FacultyKeyboard([]string{"A", "B", "C"})
	require.Len(t, kb.Rows, 2)
	assert.Len(t, kb.Rows[1], 1)
	assert.Equal(t, "fac:2", kb.Rows[1][0].CallbackData)
}

func TestParseCallbackData(t *testing.T) {
	ev, ok := ParseCallbackData("fac:4")
	require.True(t, ok)
	assert.Equal(t, conversation.ChoiceEvent{Kind: conversation.ChoiceFaculty, Value: "4"}, ev)

	ev, ok = ParseCallbackData("confirm:yes")
	require.True(t, ok)
	assert.Equal(t, conversation.ChoiceConfirm, ev.Kind)

	for _, bad := range []string{"", "fac", "fac:", "top:page:2", "unknown:1"} {
		_, ok := ParseCallbackData(bad)
		assert.False(t, ok, bad)
	}
}

func TestRender_EscapesUserInput(t *testing.T) {
	p := NewRegistrationPresenter(registration.MustDefaultCatalog())
	d := sampleDraft()
	d.FullName = "<b>Ivan</b> & Co"

	v := p.Render(conversation.Prompt{Kind: conversation.PromptSummary, Draft: d})
	assert.Contains(t, v.Text, "👤 ФИО: &lt;b&gt;Ivan&lt;/b&gt; &amp; Co\n")
	assert.NotContains(t, v.Text, "<b>Ivan")

	// Разметка показывается как есть, ничего не теряется
	d.FullName = "Ivan <b>x</b>"
	d.City = "Minsk <script>alert(1)</script>"
	v = p.Render(conversation.Prompt{Kind: conversation.PromptSummary, Draft: d})
	assert.Contains(t, v.Text, "👤 ФИО: Ivan &lt;b&gt;x&lt;/b&gt;\n")
	assert.Contains(t, v.Text, "🏙️ Город: Minsk &lt;script&gt;alert(1)&lt;/script&gt;\n")
	assert.NotContains(t, v.Text, "<script>")
}

func TestStatistics(t *testing.T) {
	p := NewRegistrationPresenter(registration.MustDefaultCatalog())
	g := newGolden(t)

	g.Assert(t, "statistics", []byte(p.Statistics(registration.Statistics{
		Total: 5,
		Today: 2,
		ByFaculty: []registration.FacultyCount{
			{Faculty: "ФПМИ", Count: 3},
			{Faculty: "МехМат", Count: 1},
			{Faculty: "ЮрФак", Count: 1},
		},
	}).Text))

	assert.Equal(t, "📭 Заявок пока нет!", p.Statistics(registration.Statistics{}).Text)
	assert.Equal(t, "⛔ У вас нет прав на просмотр статистики.", p.Unauthorized().Text)
}

func TestHelp(t *testing.T) {
	p := NewRegistrationPresenter(registration.MustDefaultCatalog())
	newGolden(t).Assert(t, "help", []byte(p.Help().Text))
}

func TestRateLimited(t *testing.T) {
	p := NewRegistrationPresenter(registration.MustDefaultCatalog())
	assert.Equal(t, "⏳ Слишком много запросов! Подождите 1 секунду.", p.RateLimited(200*time.Millisecond).Text)
	assert.Equal(t, "⏳ Слишком много запросов! Подождите 3 секунды.", p.RateLimited(3*time.Second).Text)
	assert.Equal(t, "⏳ Слишком много запросов! Подождите 12 секунд.", p.RateLimited(12*time.Second).Text)
}

func TestPluralize(t *testing.T) {
	forms := func(n int) string { return pluralize(n, "заявка", "заявки", "заявок") }
	assert.Equal(t, "заявка", forms(1))
	assert.Equal(t, "заявка", forms(21))
	assert.Equal(t, "заявки", forms(3))
	assert.Equal(t, "заявок", forms(11))
	assert.Equal(t, "заявок", forms(14))
	assert.Equal(t, "заявок", forms(25))
}
