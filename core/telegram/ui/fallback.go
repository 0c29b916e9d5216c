package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers for updates that no command or callback claimed.
// Free text is not part of it: bots register their text handler through the registry.
type FallbackProvider interface {
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
