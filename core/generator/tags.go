package generator

import (
	"maps"
	"strings"
)

// Kind selects how the assembler handles a tag.
type Kind int

// Tag kinds.
const (
	KindUnknown     Kind = iota // passed through and reported
	KindHeader                  // consumed without output
	KindChapter                 // \c
	KindChapterChar             // \cp
	KindVerse                   // \v
	KindBlock                   // paragraph, poetry and list containers
	KindLabel                   // titles and headings
	KindNoteOpen                // \f, \fe, \x
	KindNoteSpan                // spans inside a note (\fr, \ft)
	KindNoteClose               // \f*
	KindCharStyle               // inline character styles
	KindCharClose               // closer of a character style
	KindLemma                   // character style that feeds the lemma index
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindHeader:      "header",
	KindChapter:     "chapter",
	KindChapterChar: "chapter-char",
	KindVerse:       "verse",
	KindBlock:       "block",
	KindLabel:       "label",
	KindNoteOpen:    "note-open",
	KindNoteSpan:    "note-span",
	KindNoteClose:   "note-close",
	KindCharStyle:   "char",
	KindCharClose:   "char-close",
	KindLemma:       "lemma",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind returns the Kind named s, as printed by Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// Block families. Blocks only nest inside blocks of the same family.
const (
	FamilyParagraph = "para"
	FamilyPoetry    = "poetry"
	FamilyList      = "list"
)

// TagSpec describes how one tag is rendered.
type TagSpec struct {
	Kind Kind

	// Class is the CSS class of the generated element. Empty means the tag
	// key is used.
	Class string

	// Family and Level order blocks on the open-block stack. Opening a block
	// closes every open block of another family or of the same or deeper
	// level. Level 0 blocks close everything and never stay open.
	Family string
	Level  int

	// Closer is set by Lookup when the key is the "*" form of a note span.
	Closer bool
}

// TagTable maps tag keys (without the backslash) to their handling.
type TagTable map[string]TagSpec

// Lookup returns the spec for key. Closing keys ("f*", "add*") are derived
// from their opening tag, so only opening tags need entries.
func (t TagTable) Lookup(key string) (TagSpec, bool) {
	if spec, ok := t[key]; ok {
		if spec.Class == "" {
			spec.Class = key
		}
		return spec, true
	}

	base, ok := strings.CutSuffix(key, "*")
	if !ok || base == "" {
		return TagSpec{Kind: KindUnknown}, false
	}
	spec, ok := t[base]
	if !ok {
		return TagSpec{Kind: KindUnknown}, false
	}
	if spec.Class == "" {
		spec.Class = base
	}
	switch spec.Kind {
	case KindNoteOpen:
		spec.Kind = KindNoteClose
	case KindCharStyle, KindLemma:
		spec.Kind = KindCharClose
	case KindNoteSpan:
		spec.Closer = true
	default:
		return TagSpec{Kind: KindUnknown}, false
	}
	return spec, true
}

// Clone returns a copy of the table that can be modified independently.
func (t TagTable) Clone() TagTable {
	return maps.Clone(t)
}

// DefaultTagTable returns a new table with the tags found in common
// translations.
func DefaultTagTable() TagTable {
	t := TagTable{
		"c":  {Kind: KindChapter},
		"cp": {Kind: KindChapterChar},
		"v":  {Kind: KindVerse},

		"b": {Kind: KindBlock, Family: FamilyParagraph, Level: 0},
	}

	set := func(kind Kind, keys ...string) {
		for _, k := range keys {
			t[k] = TagSpec{Kind: kind}
		}
	}
	block := func(family string, level int, keys ...string) {
		for _, k := range keys {
			t[k] = TagSpec{Kind: KindBlock, Family: family, Level: level}
		}
	}

	set(KindHeader, "id", "ide", "h", "h1", "h2", "h3", "toc1", "toc2", "toc3", "rem", "sts", "usfm", "cl")
	set(KindLabel,
		"mt", "mt1", "mt2", "mt3", "ms", "ms1", "mr", "d", "sp", "sr",
		"s", "s1", "s2", "s3", "r",
		"is", "is1", "ip", "ipi", "im", "ili", "ili1", "ili2", "io1", "io2")
	set(KindNoteOpen, "f", "fe", "x")
	set(KindNoteSpan, "fr", "ft", "fk", "fq", "fqa", "fv", "fl", "fp", "xo", "xt", "xk", "xq")
	set(KindCharStyle, "add", "nd", "wj", "qs", "bk", "it", "bd", "em", "sc", "k", "tl", "pn", "w")

	block(FamilyParagraph, 1, "p", "pi", "pi1", "pi2", "m", "mi", "nb", "pc")
	block(FamilyPoetry, 1, "q", "q1", "q2", "q3", "qc", "qr", "qm")
	block(FamilyList, 1, "li", "li1")
	block(FamilyList, 2, "li2")

	return t
}
