// Package bot connects the reply resolver and the screen tracker to Telegram updates.
package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/insurebot/core/logger"
	tg "github.com/m3rciful/insurebot/core/telegram"
	"github.com/m3rciful/insurebot/core/telegram/callbacks"
	"github.com/m3rciful/insurebot/core/telegram/commands"
	"github.com/m3rciful/insurebot/core/telegram/format"
	tghelpers "github.com/m3rciful/insurebot/core/telegram/helpers"
	"github.com/m3rciful/insurebot/core/telegram/keyboard"
	"github.com/m3rciful/insurebot/core/telegram/router"
	"github.com/m3rciful/insurebot/core/telegram/ui"
	"github.com/m3rciful/insurebot/frontdesk/replies"
	"github.com/m3rciful/insurebot/frontdesk/screens"

	tele "gopkg.in/telebot.v4"
)

const (
	// ScreenCallback is the unique key of every navigation button.
	ScreenCallback = "screen"

	Greeting       = "Здравствуйте! Я ваш персональный помощник по вопросам страхования. Выберите один из вариантов, и я подберу оптимальное решение для вас."
	TextOnlyNotice = "Я понимаю только текстовые сообщения. Напишите ваш вопрос или выберите вариант в меню."
	RateLimited    = "Слишком много запросов, попробуйте чуть позже."
)

// Handlers serves the bot's updates. Both dependencies are safe for concurrent use.
type Handlers struct {
	resolver *replies.Resolver
	tracker  *screens.Tracker
}

var _ ui.FallbackProvider = (*Handlers)(nil)

// New builds the handlers.
func New(resolver *replies.Resolver, tracker *screens.Tracker) *Handlers {
	return &Handlers{resolver: resolver, tracker: tracker}
}

// Register adds commands, the navigation callback and the text fallback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.OnStart, Description: "Главное меню"}},
		{"/help", commands.Command{Handler: h.OnHelp, Description: "Как задать вопрос", Aliases: []string{"/помощь"}}},
		{"/stats", commands.Command{Handler: h.OnStats, AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	if err := reg.RegisterCallback(ScreenCallback, h.OnScreen); err != nil {
		return err
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	reg.SetTextFallback(h.OnText)
	return nil
}

// Markup renders a view's buttons as an inline keyboard.
func Markup(v screens.View) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, len(v.Rows))
	for i, row := range v.Rows {
		rows[i] = make([]keyboard.InlineBtn, len(row))
		for j, b := range row {
			rows[i][j] = keyboard.InlineBtn{Text: b.Label, Unique: ScreenCallback, Data: b.Target.String()}
		}
	}
	return keyboard.InlineButtonsRows(rows...)
}

// OnStart puts the user on the start screen and greets them.
func (h *Handlers) OnStart(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return router.Skip("ignored")
	}
	ctx := tghelpers.BuildContext(c)
	view, err := h.tracker.Reset(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("reset screen: %w", err)
	}
	return tghelpers.SendText(c, Greeting, Markup(view))
}

// OnText answers free text with a canned reply and the buttons of the
// screen the user is currently on.
func (h *Handlers) OnText(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return router.Skip("ignored")
	}
	ctx := tghelpers.BuildContext(c)
	res := h.resolver.Resolve(ctx, c.Text())
	reply := res.Text(h.resolver.Fallback())

	view, err := h.tracker.CurrentView(ctx, user.ID)
	if err != nil {
		// a reply without the right buttons beats no reply at all
		logger.Warn(ctx, "screens", "current.fail", slog.String("err", err.Error()))
	}
	logger.Debug(ctx, "replies", "reply",
		slog.String("outcome", outcomeOf(res)),
		slog.String("screen", view.Screen.String()),
	)
	return tghelpers.SendText(c, reply, Markup(view))
}

func outcomeOf(res replies.Result) string {
	if res.Outcome == replies.Matched {
		return "ok"
	}
	return "fallback"
}

// OnScreen moves the user to the screen named by the pressed button and
// edits the message in place. Unknown targets change nothing.
func (h *Handlers) OnScreen(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return router.Skip("ignored")
	}
	ctx := tghelpers.BuildContext(c)
	view, ok, err := h.tracker.Navigate(ctx, user.ID, callbacks.CallbackPayload(c))
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if !ok {
		return router.Skip("ignored")
	}
	return tghelpers.EditText(c, view.Text, Markup(view))
}

// OnHelp shows the help screen in a new message.
func (h *Handlers) OnHelp(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return router.Skip("ignored")
	}
	view, err := h.tracker.Enter(tghelpers.BuildContext(c), user.ID, screens.Help)
	if err != nil {
		return fmt.Errorf("enter help: %w", err)
	}
	return tghelpers.SendText(c, view.Text, Markup(view))
}

// OnStats reports users per screen to the admin.
func (h *Handlers) OnStats(c tele.Context) error {
	stats, err := h.tracker.Stats(tghelpers.BuildContext(c))
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	return tghelpers.SendMDV2(c, FormatStatsMDV2(stats), nil)
}

// FormatStatsMDV2 renders screen counts as a MarkdownV2 message.
func FormatStatsMDV2(stats map[screens.Screen]int) string {
	var b strings.Builder
	total := 0
	b.WriteString("*Пользователи по экранам*\n")
	for _, s := range screens.All() {
		n := stats[s]
		total += n
		fmt.Fprintf(&b, "%s: %d\n", format.Code(s.String()), n)
	}
	b.WriteString(format.EscapeMarkdownV2(fmt.Sprintf("Всего: %d", total)))
	return b.String()
}

// UnknownDocument tells the user only text is understood.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, TextOnlyNotice, nil)
	}
}

// UnknownCallback ignores presses of buttons the bot no longer knows.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		logger.Warn(tghelpers.BuildContext(c), "tg", "callback.unknown",
			slog.String("cb_key", callbacks.CallbackKey(c)),
		)
		return router.Skip("ignored")
	}
}

// OnRateLimited tells a throttled user to slow down: button presses get a
// callback answer, other updates a short message.
func (h *Handlers) OnRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: RateLimited})
	}
	if c.Message() == nil || c.Sender() == nil {
		return nil
	}
	return tghelpers.SendText(c, RateLimited, nil)
}
