package compose

import "fmt"

// Unit selects how chunk length is measured.
type Unit string

const (
	// UnitByte measures chunks in bytes. A multi-byte character may be
	// split across two chunks.
	UnitByte Unit = "byte"

	// UnitRune measures chunks in runes and never splits a character.
	UnitRune Unit = "rune"
)

// ParseUnit converts a configuration value into a Unit. The empty string
// maps to UnitByte.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case "", UnitByte:
		return UnitByte, nil
	case UnitRune:
		return UnitRune, nil
	default:
		return "", fmt.Errorf("compose: unknown chunk unit %q (want %q or %q)", s, UnitByte, UnitRune)
	}
}

// Chunk splits s into consecutive pieces of exactly size bytes, the last
// one possibly shorter. Concatenating the result yields s. An empty s
// yields no chunks; a non-positive size yields s unsplit.
func Chunk(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 {
		return []string{s}
	}

	chunks := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	return append(chunks, s)
}

// ChunkRunes is like Chunk but measures size in runes, so every chunk
// is valid UTF-8 when s is.
func ChunkRunes(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 {
		return []string{s}
	}

	var chunks []string
	count, start := 0, 0
	for i := range s {
		if count == size {
			chunks = append(chunks, s[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, s[start:])
}

// split dispatches to the chunker for unit.
func split(s string, size int, unit Unit) []string {
	if unit == UnitRune {
		return ChunkRunes(s, size)
	}
	return Chunk(s, size)
}
