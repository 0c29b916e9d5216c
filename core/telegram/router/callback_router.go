package router

import (
	"log/slog"

	tg "github.com/m3rciful/insurebot/core/telegram"
	"github.com/m3rciful/insurebot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns the OnCallback route that dispatches presses by unique key.
// The press is always acknowledged so the client stops its spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, payload := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key), slog.String("payload", payload)}
		_ = c.Respond()

		if h, ok := reg.GetCallback(key); ok && h != nil {
			return handleWithSummary(c, name, h, extras...)
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		extras = append(extras, slog.String("reason", "not_found"))
		if fallback == nil {
			return handleWithSummary(c, name, func(tele.Context) error { return Skip("ignored") }, extras...)
		}
		return handleWithSummary(c, name, fallback, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
