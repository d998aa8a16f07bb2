// Package usfm tokenizes lines of USFM (Unified Standard Format Markers) text.
//
// A USFM line is a run of backslash markers, each optionally followed by a
// numeric argument and free text:
//
//	\q \v 47 I feel very joyful about God,
//
// Tokenize splits such a line into ordered Tokens. It keeps no state between
// lines, so every line can be tokenized independently and the returned
// sequence can be ranged over any number of times.
package usfm

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token is one marker found on a USFM line.
type Token struct {
	// Key is the marker name without the backslash (e.g. "v", "q1", "f*").
	Key string `json:"key"`

	// Number is the numeric argument following the marker ("46", "1-2",
	// "1-2-3"): a digit run continued by any digits, '-' or '+'. It is
	// empty when the marker has none.
	Number string `json:"number"`

	// Text is the free text following the marker up to the next marker or
	// the end of the line.
	Text string `json:"text"`

	// Order is the 1-based position of the marker within its line.
	Order int `json:"order"`
}

// String returns the token in its canonical "\key number text" form.
func (t Token) String() string {
	var sb strings.Builder
	sb.WriteByte('\\')
	sb.WriteString(t.Key)
	if t.Number != "" {
		sb.WriteByte(' ')
		sb.WriteString(t.Number)
	}
	if t.Text != "" {
		sb.WriteByte(' ')
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// Content returns the argument and text joined back together. Markers that
// do not take a numeric argument (\fr 1:24, \s1 2 Kings) use this to recover
// text the tokenizer split off as a number.
func (t Token) Content() string {
	switch {
	case t.Number == "":
		return t.Text
	case t.Text == "":
		return t.Number
	}
	r, _ := utf8.DecodeRuneInString(t.Text)
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return t.Number + " " + t.Text
	}
	return t.Number + t.Text
}

// IsCloser reports whether the marker ends a span (\f*, \add*).
func (t Token) IsCloser() bool {
	return strings.HasSuffix(t.Key, "*") && len(t.Key) > 1
}

// lineLexer splits a line into markers, digit runs, whitespace and text.
// A lone backslash that does not start a marker lexes as Text, so every
// input is covered by some rule.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Marker", Pattern: `\\[a-z0-9*]+`},
	{Name: "Number", Pattern: `[0-9]+[-+0-9]*`},
	{Name: "Space", Pattern: `\s+`},
	{Name: "Text", Pattern: `[^\\\s0-9]+|\\`},
})

var (
	markerType = lineLexer.Symbols()["Marker"]
	numberType = lineLexer.Symbols()["Number"]
	spaceType  = lineLexer.Symbols()["Space"]
	textType   = lineLexer.Symbols()["Text"]
)

// position within the current token
type foldState int

const (
	afterKey foldState = iota
	afterNumber
	inText
)

// Tokenize returns the markers of a single line in order. A line without
// markers yields nothing, and text before the first marker is ignored.
// Tokenize never fails: fragments that are not markers become part of the
// preceding token's text. Closing markers (\add*) take no argument, so the
// text after them is kept verbatim, leading whitespace included. Bytes that
// are not valid UTF-8 are replaced with U+FFFD, one per invalid run.
func Tokenize(line string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		lexed := lexLine(line)

		var (
			cur   *Token
			state foldState
			text  strings.Builder
			order int
		)

		emit := func() bool {
			if cur == nil {
				return true
			}
			cur.Text = text.String()
			text.Reset()
			return yield(*cur)
		}

		for i, lt := range lexed {
			if lt.Type == markerType {
				if !emit() {
					return
				}
				order++
				cur = &Token{Key: lt.Value[1:], Order: order}
				state = afterKey
				if cur.IsCloser() {
					// closers take no argument; the space after them is text
					state = inText
				}
				continue
			}
			if cur == nil {
				continue
			}

			switch state {
			case afterKey:
				switch {
				case lt.Type == spaceType:
					// whitespace between marker and argument
				case lt.Type == numberType && !followedByLetter(lexed, i):
					cur.Number = lt.Value
					state = afterNumber
				default:
					text.WriteString(lt.Value)
					state = inText
				}
			case afterNumber:
				if lt.Type != spaceType {
					text.WriteString(lt.Value)
				}
				state = inText
			default:
				text.WriteString(lt.Value)
			}
		}
		emit()
	}
}

// ParseLine returns all tokens of a line as a slice.
func ParseLine(line string) []Token {
	return slices.Collect(Tokenize(line))
}

// Count returns the number of markers on a line.
func Count(line string) int {
	n := 0
	for range Tokenize(line) {
		n++
	}
	return n
}

// followedByLetter reports whether the lexed token after i is text that
// starts with a letter, as in "\id 3JN". Such digits belong to the text.
func followedByLetter(lexed []lexer.Token, i int) bool {
	if i+1 >= len(lexed) || lexed[i+1].Type != textType {
		return false
	}
	r, _ := utf8.DecodeRuneInString(lexed[i+1].Value)
	return unicode.IsLetter(r)
}

// lexLine runs the lexer over a line. The rules cover every input, so an
// error can only come from the lexer itself; in that case the line is
// treated as having no markers.
func lexLine(line string) []lexer.Token {
	line = strings.ToValidUTF8(line, "\uFFFD")
	lex, err := lineLexer.LexString("", line)
	if err != nil {
		return nil
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil
	}
	return tokens
}
