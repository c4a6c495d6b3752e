// Package compose turns a selection into the ordered list of Telegram
// message texts that carry it: an optional header, a fenced code block
// and length-based chunking.
package compose

import (
	"strings"
	"time"

	"github.com/flemzord/tgpost/internal/selection"
)

// Parse modes understood by the composer. Any other value is passed to
// Telegram untouched.
const (
	ParseModeNone       = "None"
	ParseModeMarkdownV2 = "MarkdownV2"
)

// Chunk size bounds. Telegram rejects messages above 4096 characters.
const (
	MinChunkSize = 1000
	MaxChunkSize = 4000
)

// timestampLayout is the human-readable timestamp in the metadata line.
const timestampLayout = "2006-01-02 15:04:05"

// Options carries the user configuration relevant to composition.
type Options struct {
	ParseMode       string
	PrependFilename bool
	IncludeMetadata bool
	ChunkSize       int
	Unit            Unit
}

// Message is a composed message: the full text and the chunks it is
// sent as. Joining Chunks yields Text.
type Message struct {
	Text   string
	Chunks []string
}

// Composer builds messages. The zero value uses time.Now.
type Composer struct {
	// Now returns the time stamped into the metadata line.
	Now func() time.Time
}

// EffectiveChunkSize clamps size into [MinChunkSize, MaxChunkSize].
func EffectiveChunkSize(size int) int {
	return min(max(size, MinChunkSize), MaxChunkSize)
}

// Compose builds the message for p.
func (c Composer) Compose(p selection.Payload, opts Options) Message {
	text := c.header(p, opts) + fence(p.LanguageID, p.Text)
	return Message{
		Text:   text,
		Chunks: split(text, EffectiveChunkSize(opts.ChunkSize), opts.Unit),
	}
}

// header returns the header block including its two trailing newlines,
// or "" when no header line is enabled.
func (c Composer) header(p selection.Payload, opts Options) string {
	var lines []string
	if opts.PrependFilename {
		lines = append(lines, p.FileName)
	}
	if opts.IncludeMetadata {
		lang := p.LanguageID
		if lang == "" {
			lang = "text"
		}
		lines = append(lines, lang+" • "+c.now().Format(timestampLayout))
	}
	if len(lines) == 0 {
		return ""
	}

	// Escaping the joined block keeps the newline between lines literal.
	joined := strings.Join(lines, "\n")
	if opts.ParseMode == ParseModeMarkdownV2 {
		joined = EscapeMarkdownV2(joined)
	}
	return joined + "\n\n"
}

func (c Composer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// fence wraps text in a triple-backtick block tagged with lang.
func fence(lang, text string) string {
	return "```" + lang + "\n" + text + "\n```"
}
