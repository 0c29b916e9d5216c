// Package screens tracks which menu screen each user is looking at and
// describes what every screen shows.
package screens

import (
	"errors"
	"strings"
)

// Screen identifies one menu screen. The set is closed.
type Screen string

const (
	Start           Screen = "start"
	Messengers      Screen = "massengers"
	Site            Screen = "site"
	Pricing         Screen = "pricing"
	ContactOperator Screen = "contact-operator"
	Info            Screen = "info"
	Help            Screen = "help"
)

// ErrUnknownScreen is returned for identifiers outside the screen set.
var ErrUnknownScreen = errors.New("unknown screen")

// All lists every screen in menu order.
func All() []Screen {
	return []Screen{Start, Messengers, Site, Pricing, ContactOperator, Info, Help}
}

// Parse maps a button payload to a screen. Identifiers used by buttons of
// earlier bot versions are still accepted.
func Parse(id string) (Screen, bool) {
	switch strings.TrimSpace(id) {
	case "start":
		return Start, true
	case "massengers", "messengers":
		return Messengers, true
	case "site":
		return Site, true
	case "pricing", "summStraxovki":
		return Pricing, true
	case "contact-operator", "contact_operator":
		return ContactOperator, true
	case "info":
		return Info, true
	case "help":
		return Help, true
	}
	return "", false
}

// Valid reports whether s is one of the screen constants.
func (s Screen) Valid() bool {
	_, _, ok := defaultView(s)
	return ok
}

// String returns the identifier carried by buttons.
func (s Screen) String() string { return string(s) }

// Parent returns the screen the back button leads to. Start has none.
func (s Screen) Parent() (Screen, bool) {
	switch s {
	case Start:
		return "", false
	case Messengers, Site, Pricing, ContactOperator, Info, Help:
		return Start, true
	}
	return "", false
}
