// Package selection reads the text to post: a whole document or a line
// range of it, from a file or standard input.
package selection

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Untitled is the file name used when the document has no path.
const Untitled = "untitled"

// ErrInvalidRange is returned for a malformed or out-of-bounds line range.
var ErrInvalidRange = errors.New("selection: invalid line range")

// Payload is the selected text together with its document metadata.
type Payload struct {
	Text       string
	LanguageID string
	FileName   string
}

// Empty reports whether the payload has nothing worth sending.
func (p Payload) Empty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// Source describes where the selection comes from.
type Source struct {
	// Path is the document path. Empty or "-" reads Stdin.
	Path string

	// Lines selects "N" or "N-M" (1-based, inclusive). Empty selects the
	// whole document.
	Lines string

	// Language overrides the language id derived from Path.
	Language string

	// Stdin is read when Path is empty or "-". Defaults to os.Stdin.
	Stdin io.Reader
}

// Selection reads the document and applies the line range.
func (s Source) Selection() (Payload, error) {
	doc, err := s.read()
	if err != nil {
		return Payload{}, err
	}

	text := doc
	if s.Lines != "" {
		text, err = selectLines(doc, s.Lines)
		if err != nil {
			return Payload{}, err
		}
	}

	lang := s.Language
	if lang == "" {
		lang = LanguageID(s.Path)
	}

	return Payload{
		Text:       text,
		LanguageID: lang,
		FileName:   FileName(s.Path),
	}, nil
}

func (s Source) read() (string, error) {
	if s.fromStdin() {
		r := s.Stdin
		if r == nil {
			r = os.Stdin
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("selection: reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("selection: reading %s: %w", s.Path, err)
	}
	return string(data), nil
}

func (s Source) fromStdin() bool {
	return s.Path == "" || s.Path == "-"
}

// FileName returns the last element of path, accepting both slash
// styles, or Untitled.
func FileName(path string) string {
	if path == "" || path == "-" {
		return Untitled
	}
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return Untitled
	}
	return path
}

// selectLines returns lines from..to of doc. The final newline of the
// range is dropped so the result reads like an editor selection.
func selectLines(doc, rng string) (string, error) {
	from, to, err := parseRange(rng)
	if err != nil {
		return "", err
	}

	lines := strings.SplitAfter(doc, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if from > len(lines) {
		return "", fmt.Errorf("%w: %q starts past line %d", ErrInvalidRange, rng, len(lines))
	}
	to = min(to, len(lines))

	return strings.TrimSuffix(strings.Join(lines[from-1:to], ""), "\n"), nil
}

func parseRange(rng string) (int, int, error) {
	a, b, found := strings.Cut(rng, "-")
	from, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil || from < 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
	}
	if !found {
		return from, from, nil
	}
	to, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil || to < from {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
	}
	return from, to, nil
}

// LanguageID maps a file extension to an editor language identifier.
// Unknown extensions give "".
func LanguageID(path string) string {
	name := strings.ToLower(FileName(path))
	if id, ok := languageByName[name]; ok {
		return id
	}
	return languageByExt[filepath.Ext(name)]
}
