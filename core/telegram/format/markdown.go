package format

import "strings"

// mdV2Escaper escapes every character MarkdownV2 treats as markup.
var mdV2Escaper = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
	"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// EscapeMarkdownV2 makes arbitrary text safe for tele.ModeMarkdownV2 messages.
func EscapeMarkdownV2(text string) string {
	return mdV2Escaper.Replace(text)
}

// Code wraps text in an inline code span for MarkdownV2.
func Code(text string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")
	return "`" + r.Replace(text) + "`"
}
