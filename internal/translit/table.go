package translit

import (
	"fmt"
	"slices"
)

// Substitution declares that CodePoint is rendered by the service in place
// of the ASCII letter Letter.
type Substitution struct {
	CodePoint rune
	Letter    rune
}

// MappingTable maps obfuscation code points to their ASCII letters.
// Several code points may map to the same letter. A MappingTable is
// immutable once built.
type MappingTable struct {
	letters map[rune]rune
}

// NewMappingTable builds a MappingTable from subs.
// It returns ErrDuplicateCodePoint if a code point is declared twice and
// ErrInvalidReplacement if a replacement is not an ASCII letter.
func NewMappingTable(subs []Substitution) (*MappingTable, error) {
	letters := make(map[rune]rune, len(subs))
	for _, s := range subs {
		if !isASCIILetter(s.Letter) {
			return nil, fmt.Errorf("%w: U+%04X -> %q", ErrInvalidReplacement, s.CodePoint, s.Letter)
		}
		if prev, ok := letters[s.CodePoint]; ok {
			return nil, fmt.Errorf("%w: U+%04X declared as %q and %q",
				ErrDuplicateCodePoint, s.CodePoint, prev, s.Letter)
		}
		letters[s.CodePoint] = s.Letter
	}
	return &MappingTable{letters: letters}, nil
}

// Lookup returns the ASCII letter for r.
func (m *MappingTable) Lookup(r rune) (rune, bool) {
	letter, ok := m.letters[r]
	return letter, ok
}

// Len returns the number of code points in the table.
func (m *MappingTable) Len() int {
	return len(m.letters)
}

// CodePoints returns the table's code points in ascending order.
func (m *MappingTable) CodePoints() []rune {
	keys := make([]rune, 0, len(m.letters))
	for k := range m.letters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// DroppedSet holds code points that are removed from the output without
// being reported. They are invisible formatting characters and the
// punctuation and digits the service scatters through its labels.
type DroppedSet struct {
	points map[rune]struct{}
}

// NewDroppedSet builds a DroppedSet. A code point listed twice yields
// ErrDuplicateCodePoint.
func NewDroppedSet(points []rune) (*DroppedSet, error) {
	set := make(map[rune]struct{}, len(points))
	for _, p := range points {
		if _, ok := set[p]; ok {
			return nil, fmt.Errorf("%w: U+%04X listed twice in dropped set", ErrDuplicateCodePoint, p)
		}
		set[p] = struct{}{}
	}
	return &DroppedSet{points: set}, nil
}

// Contains reports whether r is dropped.
func (d *DroppedSet) Contains(r rune) bool {
	_, ok := d.points[r]
	return ok
}

// Len returns the number of code points in the set.
func (d *DroppedSet) Len() int {
	return len(d.points)
}

// CodePoints returns the set's code points in ascending order.
func (d *DroppedSet) CodePoints() []rune {
	keys := make([]rune, 0, len(d.points))
	for k := range d.points {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// defaultSubstitutions lists every substitution observed in VigiAccess
// labels, grouped by script.
var defaultSubstitutions = []Substitution{
	// Cherokee
	{0x13A0, 'D'}, {0x13A1, 'R'}, {0x13A2, 'T'}, {0x13A5, 'i'},
	{0x13A9, 'y'}, {0x13AA, 'A'}, {0x13AB, 'J'}, {0x13AC, 'E'},
	{0x13B3, 'W'}, {0x13B6, 'G'}, {0x13B7, 'M'}, {0x13BB, 'H'},
	{0x13C0, 'G'}, {0x13C2, 'h'}, {0x13C3, 'Z'}, {0x13C6, 'I'},
	{0x13CF, 'b'}, {0x13D2, 'R'}, {0x13D9, 'V'}, {0x13DA, 'S'},
	{0x13DE, 'L'}, {0x13DF, 'C'}, {0x13E2, 'P'}, {0x13E6, 'K'},
	{0x13E7, 'd'}, {0x13F4, 'B'},
	// Canadian syllabics
	{0x148D, 'J'}, {0x166D, 'X'},

	// Roman numerals
	{0x2160, 'I'}, {0x2164, 'V'}, {0x2169, 'X'}, {0x216C, 'L'},
	{0x216D, 'C'}, {0x216E, 'D'}, {0x216F, 'M'}, {0x2170, 'i'},
	{0x2174, 'v'}, {0x2179, 'x'}, {0x217C, 'l'}, {0x217D, 'c'},
	{0x217E, 'd'}, {0x217F, 'm'},

	// Lisu
	{0xA4D0, 'B'}, {0xA4D1, 'P'}, {0xA4D2, 'd'}, {0xA4D3, 'D'},
	{0xA4D4, 'T'}, {0xA4D6, 'G'}, {0xA4D7, 'K'}, {0xA4D9, 'J'},
	{0xA4DA, 'C'}, {0xA4DC, 'Z'}, {0xA4DD, 'F'}, {0xA4DF, 'M'},
	{0xA4E0, 'N'}, {0xA4E1, 'L'}, {0xA4E2, 'S'}, {0xA4E3, 'R'},
	{0xA4E6, 'V'}, {0xA4E7, 'H'}, {0xA4EA, 'W'}, {0xA4EB, 'X'},
	{0xA4EC, 'Y'}, {0xA4EE, 'A'}, {0xA4F0, 'E'}, {0xA4F2, 'I'},
	{0xA4F3, 'O'}, {0xA4F4, 'U'},

	// Armenian
	{0x0555, 'O'}, {0x0585, 'o'}, {0x0570, 'h'}, {0x0578, 'n'},
	{0x057D, 'u'}, {0x0581, 'g'}, {0x0575, 'j'},

	// Greek, Cyrillic, Tifinagh and compatibility forms
	{0x039F, 'O'}, {0x041E, 'O'}, {0x212A, 'K'}, {0x2D38, 'V'},
	{0x2D5D, 'X'}, {0xFF37, 'W'},
}

// defaultDropped lists the code points removed without a ledger entry.
var defaultDropped = []rune{
	// ASCII punctuation and digits
	'\'', '(', ')', ',', '-', '/',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',

	0x00AD, // SOFT HYPHEN
	0x034F, // COMBINING GRAPHEME JOINER
	0x200B, // ZERO WIDTH SPACE
	0x200C, // ZERO WIDTH NON-JOINER
	0x2060, // WORD JOINER
	0x2061, // FUNCTION APPLICATION
	0x2062, // INVISIBLE TIMES
	0x2063, // INVISIBLE SEPARATOR
	0x206A, // INHIBIT SYMMETRIC SWAPPING
	0x206B, // ACTIVATE SYMMETRIC SWAPPING
	0x206C, // INHIBIT ARABIC FORM SHAPING
	0x206D, // ACTIVATE ARABIC FORM SHAPING
	0x206E, // NATIONAL DIGIT SHAPES
	0x206F, // NOMINAL DIGIT SHAPES
	0xFEFF, // ZERO WIDTH NO-BREAK SPACE
}

var (
	defaultMappingTable = mustMappingTable(defaultSubstitutions)
	defaultDroppedSet   = mustDroppedSet(defaultDropped)
)

// DefaultMappingTable returns the built-in substitution table.
func DefaultMappingTable() *MappingTable {
	return defaultMappingTable
}

// DefaultDroppedSet returns the built-in dropped code point set.
func DefaultDroppedSet() *DroppedSet {
	return defaultDroppedSet
}

func mustMappingTable(subs []Substitution) *MappingTable {
	m, err := NewMappingTable(subs)
	if err != nil {
		panic(err)
	}
	return m
}

func mustDroppedSet(points []rune) *DroppedSet {
	d, err := NewDroppedSet(points)
	if err != nil {
		panic(err)
	}
	return d
}
