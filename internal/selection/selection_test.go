package selection

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSelectionFromStdin(t *testing.T) {
	p, err := Source{Stdin: strings.NewReader("hello\n")}.Selection()
	if err != nil {
		t.Fatalf("Selection() error: %v", err)
	}
	if p.Text != "hello\n" {
		t.Errorf("Text = %q, want %q", p.Text, "hello\n")
	}
	if p.FileName != Untitled {
		t.Errorf("FileName = %q, want %q", p.FileName, Untitled)
	}
	if p.LanguageID != "" {
		t.Errorf("LanguageID = %q, want empty", p.LanguageID)
	}
}

func TestSelectionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Source{Path: path, Lines: "2-3"}.Selection()
	if err != nil {
		t.Fatalf("Selection() error: %v", err)
	}
	if p.Text != "two\nthree" {
		t.Errorf("Text = %q, want %q", p.Text, "two\nthree")
	}
	if p.FileName != "a.py" {
		t.Errorf("FileName = %q, want %q", p.FileName, "a.py")
	}
	if p.LanguageID != "python" {
		t.Errorf("LanguageID = %q, want %q", p.LanguageID, "python")
	}
}

func TestSelectionLanguageOverride(t *testing.T) {
	p, err := Source{Stdin: strings.NewReader("x"), Language: "go"}.Selection()
	if err != nil {
		t.Fatalf("Selection() error: %v", err)
	}
	if p.LanguageID != "go" {
		t.Errorf("LanguageID = %q, want %q", p.LanguageID, "go")
	}
}

func TestSelectionMissingFile(t *testing.T) {
	_, err := Source{Path: filepath.Join(t.TempDir(), "nope.txt")}.Selection()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestSelectLines(t *testing.T) {
	doc := "a\nb\nc\nd"
	tests := []struct {
		name    string
		rng     string
		want    string
		wantErr bool
	}{
		{name: "single line", rng: "2", want: "b"},
		{name: "range", rng: "2-3", want: "b\nc"},
		{name: "last line without newline", rng: "4", want: "d"},
		{name: "end clamped", rng: "3-99", want: "c\nd"},
		{name: "spaces", rng: " 1 - 2 ", want: "a\nb"},
		{name: "zero", rng: "0", wantErr: true},
		{name: "reversed", rng: "3-1", wantErr: true},
		{name: "past end", rng: "5", wantErr: true},
		{name: "garbage", rng: "x-y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectLines(doc, tt.rng)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRange) {
					t.Errorf("selectLines(%q) error = %v, want ErrInvalidRange", tt.rng, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectLines(%q) error: %v", tt.rng, err)
			}
			if got != tt.want {
				t.Errorf("selectLines(%q) = %q, want %q", tt.rng, got, tt.want)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", Untitled},
		{"-", Untitled},
		{"/home/me/a.py", "a.py"},
		{`C:\src\main.go`, "main.go"},
		{"dir/", Untitled},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := FileName(tt.path); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLanguageID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"script.SH", "shellscript"},
		{"app.tsx", "typescriptreact"},
		{"Dockerfile", "dockerfile"},
		{"notes.unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LanguageID(tt.path); got != tt.want {
			t.Errorf("LanguageID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestPayloadEmpty(t *testing.T) {
	if !(Payload{Text: " \n\t"}).Empty() {
		t.Error("whitespace payload should be empty")
	}
	if (Payload{Text: "x"}).Empty() {
		t.Error("non-blank payload should not be empty")
	}
}
