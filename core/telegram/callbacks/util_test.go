package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	tests := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"encoded", &tele.Callback{Data: "\fscreen|contact-operator"}, "screen", "contact-operator"},
		{"no payload", &tele.Callback{Data: "\fscreen"}, "screen", ""},
		{"raw legacy", &tele.Callback{Data: "massengers"}, "massengers", ""},
		{"routed", &tele.Callback{Unique: "screen", Data: "site"}, "screen", "site"},
		{"payload with bar", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
	}
	for _, tt := range tests {
		key, payload := ParseCallbackData(tt.cb)
		if key != tt.key || payload != tt.payload {
			t.Fatalf("%s: got (%q,%q), want (%q,%q)", tt.name, key, payload, tt.key, tt.payload)
		}
	}
}
