package compose

import "strings"

// markdownV2Header lists the characters escaped in header lines.
// Brackets and parentheses are left alone: headers never contain links.
var markdownV2Header = strings.NewReplacer(
	`\`, `\\`,
	`_`, `\_`,
	`*`, `\*`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

// EscapeMarkdownV2 prefixes every MarkdownV2 reserved character in text
// with a backslash.
// Special chars: \ _ * ~ ` > # + - = | { } . !
func EscapeMarkdownV2(text string) string {
	return markdownV2Header.Replace(text)
}
