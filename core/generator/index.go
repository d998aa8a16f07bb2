package generator

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordIndexer folds verse text into a WordIndex.
type wordIndexer struct {
	words WordIndex
	lower cases.Caser
}

func newWordIndexer(lang string) *wordIndexer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}
	return &wordIndexer{
		words: make(WordIndex),
		lower: cases.Lower(tag),
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// add records every word of text under verseID. A verse is listed once per
// word even when the word repeats.
func (w *wordIndexer) add(text, verseID string) {
	if w == nil || verseID == "" {
		return
	}
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) }) {
		word = w.lower.String(word)
		ids := w.words[word]
		if len(ids) > 0 && ids[len(ids)-1] == verseID {
			continue
		}
		w.words[word] = append(ids, verseID)
	}
}

func (w *wordIndexer) index() WordIndex {
	if w == nil {
		return WordIndex{}
	}
	return w.words
}

// lemmaAttributes are the \w attribute names that carry a lemma, in
// preference order.
var lemmaAttributes = []string{"lemma", "strong"}

// splitAttributes separates "word|lemma="x" strong="H1"" into the display
// text and its attribute list.
func splitAttributes(text string) (string, string) {
	display, attrs, ok := strings.Cut(text, "|")
	if !ok {
		return text, ""
	}
	return display, attrs
}

// lemmaOf returns the lemma named by attrs, falling back to the display
// word itself.
func lemmaOf(display, attrs string) string {
	for _, name := range lemmaAttributes {
		if v, ok := attributeValue(attrs, name); ok && v != "" {
			return v
		}
	}
	// default attribute: \w word|lemma\w*
	if attrs != "" && !strings.Contains(attrs, "=") {
		return strings.TrimSpace(attrs)
	}
	return strings.ToLower(strings.TrimSpace(display))
}

func attributeValue(attrs, name string) (string, bool) {
	for attrs != "" {
		attrs = strings.TrimLeft(attrs, " ")
		key, rest, ok := strings.Cut(attrs, "=")
		if !ok {
			return "", false
		}
		rest = strings.TrimLeft(rest, " ")
		if !strings.HasPrefix(rest, `"`) {
			return "", false
		}
		val, after, ok := strings.Cut(rest[1:], `"`)
		if !ok {
			return "", false
		}
		if strings.TrimSpace(key) == name {
			return val, true
		}
		attrs = after
	}
	return "", false
}

func (l LemmaIndex) add(lemma, verseID string) {
	if lemma == "" || verseID == "" {
		return
	}
	ids := l[lemma]
	if len(ids) > 0 && ids[len(ids)-1] == verseID {
		return
	}
	l[lemma] = append(ids, verseID)
}
