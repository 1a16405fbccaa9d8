package translit

import (
	"log/slog"
	"strings"
)

// Translator turns obfuscated VigiAccess labels back into ASCII text and
// keeps a Ledger of the code points it could not classify.
type Translator struct {
	classifier *Classifier
	ledger     *Ledger
	logger     *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithTables replaces the built-in mapping table and dropped set.
// A nil argument keeps the corresponding default.
func WithTables(mapping *MappingTable, dropped *DroppedSet) Option {
	return func(t *Translator) {
		t.classifier = NewClassifier(mapping, dropped)
	}
}

// WithLogger sets the logger unknown characters are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

// New returns a Translator with an empty ledger.
func New(opts ...Option) *Translator {
	t := &Translator{
		ledger: NewLedger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.classifier == nil {
		t.classifier = NewClassifier(nil, nil)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Translate returns text with substitutions replaced, dropped characters
// removed and unknown characters removed and recorded. It never fails.
func (t *Translator) Translate(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	invalid := false
	pos := 0
	for _, r := range text {
		pos++
		class, out := t.classifier.Classify(r)
		switch class {
		case ClassSpace, ClassMapped, ClassLetter:
			sb.WriteRune(out)
		case ClassDropped:
		case ClassUnknown:
			invalid = true
			entry, _ := t.ledger.Record(r, text)
			t.logger.Warn("unknown character",
				"char", entry.Char,
				"code_point", int(r),
				"position", pos,
				"name", entry.Name,
			)
		}
	}

	if invalid {
		t.logger.Warn("text contains unknown characters", "text", text)
	}
	return sb.String()
}

// DrainLedger returns the diagnostics of every unknown code point seen so
// far, keyed by code point.
func (t *Translator) DrainLedger() map[rune]string {
	return t.ledger.Diagnostics()
}

// Entries returns the ledger entries sorted by code point.
func (t *Translator) Entries() []LedgerEntry {
	return t.ledger.Entries()
}

// Classify returns the class of a single code point.
func (t *Translator) Classify(r rune) Class {
	class, _ := t.classifier.Classify(r)
	return class
}
