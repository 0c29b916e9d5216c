package router

import (
	"strings"

	tg "github.com/m3rciful/insurebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text and document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds the OnText and OnDocument routes.
// Text starting with a slash is matched against command aliases; an unknown
// command is logged and ignored. Everything else goes to the registry's text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		msg := c.Text()
		if strings.HasPrefix(strings.TrimSpace(msg), "/") {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(msg); ok && cmd.Handler != nil && !cmd.AdminOnly {
					return handleWithSummary(c, normalizeHandlerName(key), cmd.Handler)
				}
			}
			return handleWithSummary(c, "unknown_command", func(tele.Context) error { return Skip("ignored") })
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", fb)
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", opts.UnknownText)
		}
		return handleWithSummary(c, "unknown_text", func(tele.Context) error { return Skip("ignored") })
	}

	doc := func(c tele.Context) error {
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", opts.UnknownDocument)
		}
		return handleWithSummary(c, "unexpected_document", func(tele.Context) error { return Skip("ignored") })
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnDocument, Handler: doc},
	}
}
