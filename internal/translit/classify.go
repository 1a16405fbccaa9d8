package translit

// Class is the category a single code point falls into.
type Class int

const (
	// ClassUnknown is a code point outside every table.
	ClassUnknown Class = iota
	// ClassSpace is the ASCII space.
	ClassSpace
	// ClassMapped is a known obfuscation substitution.
	ClassMapped
	// ClassDropped is a code point removed without a trace.
	ClassDropped
	// ClassLetter is a plain ASCII letter.
	ClassLetter
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassSpace:
		return "space"
	case ClassMapped:
		return "mapped"
	case ClassDropped:
		return "dropped"
	case ClassLetter:
		return "letter"
	default:
		return "unknown"
	}
}

// Classifier decides the Class of a code point from a mapping table and a
// dropped set.
type Classifier struct {
	mapping *MappingTable
	dropped *DroppedSet
}

// NewClassifier returns a Classifier over the given tables.
// Nil tables fall back to the defaults.
func NewClassifier(mapping *MappingTable, dropped *DroppedSet) *Classifier {
	if mapping == nil {
		mapping = DefaultMappingTable()
	}
	if dropped == nil {
		dropped = DefaultDroppedSet()
	}
	return &Classifier{mapping: mapping, dropped: dropped}
}

// Classify returns the class of r and the rune to emit for it.
// The emitted rune is meaningful only for ClassSpace, ClassMapped and
// ClassLetter.
func (c *Classifier) Classify(r rune) (Class, rune) {
	if r == ' ' {
		return ClassSpace, r
	}
	if letter, ok := c.mapping.Lookup(r); ok {
		return ClassMapped, letter
	}
	if c.dropped.Contains(r) {
		return ClassDropped, 0
	}
	if isASCIILetter(r) {
		return ClassLetter, r
	}
	return ClassUnknown, 0
}
