package translit

import (
	"fmt"
	"slices"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/unicode/runenames"
)

// LedgerEntry describes a code point the translator could not classify.
type LedgerEntry struct {
	// CodePoint is the unclassified code point.
	CodePoint rune

	// Char is the code point as a string.
	Char string

	// Name is the Unicode character name, or U+XXXX when it has none.
	Name string

	// Hint holds the ASCII letters of the code point's compatibility
	// decomposition. It is empty when the decomposition has none.
	Hint string

	// Occurrences counts how often the code point was seen.
	Occurrences int

	// FirstSeenIn is the input text the code point first appeared in.
	FirstSeenIn string
}

// Diagnostic renders the entry as "<char>---<name>".
func (e LedgerEntry) Diagnostic() string {
	return e.Char + "---" + e.Name
}

// Ledger accumulates unknown code points. The first sighting of a code
// point fixes its entry; later sightings only bump Occurrences.
// Entries are never removed.
type Ledger struct {
	entries map[rune]*LedgerEntry
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[rune]*LedgerEntry)}
}

// Record notes one sighting of r in source and returns its entry.
// The boolean is true when r had not been seen before.
func (l *Ledger) Record(r rune, source string) (LedgerEntry, bool) {
	if e, ok := l.entries[r]; ok {
		e.Occurrences++
		return *e, false
	}
	e := &LedgerEntry{
		CodePoint:   r,
		Char:        string(r),
		Name:        CharName(r),
		Hint:        asciiHint(r),
		Occurrences: 1,
		FirstSeenIn: source,
	}
	l.entries[r] = e
	return *e, true
}

// Len returns the number of distinct code points recorded.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Diagnostics returns code point -> "<char>---<name>" for every entry.
func (l *Ledger) Diagnostics() map[rune]string {
	out := make(map[rune]string, len(l.entries))
	for r, e := range l.entries {
		out[r] = e.Diagnostic()
	}
	return out
}

// Entries returns a copy of all entries sorted by code point.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b LedgerEntry) int {
		return int(a.CodePoint - b.CodePoint)
	})
	return out
}

// CharName returns the Unicode name of r, or its U+XXXX notation when the
// name is unknown.
func CharName(r rune) string {
	if name := runenames.Name(r); name != "" {
		return name
	}
	return fmt.Sprintf("U+%04X", r)
}

// asciiHint decomposes r and keeps the ASCII letters of the result.
// Fullwidth and mathematical letters yield their plain counterpart.
func asciiHint(r rune) string {
	// Transformers carry state, so each call builds its own chain.
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(stripMarks, string(r))
	if err != nil {
		return ""
	}
	hint := make([]rune, 0, len(decomposed))
	for _, d := range decomposed {
		if isASCIILetter(d) {
			hint = append(hint, d)
		}
	}
	return string(hint)
}
