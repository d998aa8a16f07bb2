package usfm

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Token
	}{
		{
			name: "one tag",
			line: `\v 46 Then Mary praised God by saying:`,
			want: []Token{
				{Key: "v", Number: "46", Text: "Then Mary praised God by saying:", Order: 1},
			},
		},
		{
			name: "multiple tags",
			line: `\q \v 47 I feel very joyful about God,`,
			want: []Token{
				{Key: "q", Number: "", Text: "", Order: 1},
				{Key: "v", Number: "47", Text: "I feel very joyful about God,", Order: 2},
			},
		},
		{
			name: "book code with leading digit",
			line: `\id 3JN Unlocked Dynamic Bible`,
			want: []Token{
				{Key: "id", Number: "", Text: "3JN Unlocked Dynamic Bible", Order: 1},
			},
		},
		{
			name: "verse range",
			line: `\v 1-2 Joseph chose five of his brothers to go with him to talk to the king...`,
			want: []Token{
				{Key: "v", Number: "1-2", Text: "Joseph chose five of his brothers to go with him to talk to the king...", Order: 1},
			},
		},
		{
			name: "tag key with digits",
			line: `\mt1 The Book of Psalms`,
			want: []Token{
				{Key: "mt1", Text: "The Book of Psalms", Order: 1},
			},
		},
		{
			name: "chapter number only",
			line: `\c 12`,
			want: []Token{
				{Key: "c", Number: "12", Order: 1},
			},
		},
		{
			name: "footnote pair",
			line: `\v 24 So God gave them up\f + \ft Or handed them over\f* to impurity.`,
			want: []Token{
				{Key: "v", Number: "24", Text: "So God gave them up", Order: 1},
				{Key: "f", Text: "+ ", Order: 2},
				{Key: "ft", Text: "Or handed them over", Order: 3},
				{Key: "f*", Text: " to impurity.", Order: 4},
			},
		},
		{
			name: "closer keeps following space",
			line: `\v 1 Blessed \add is\add* the man`,
			want: []Token{
				{Key: "v", Number: "1", Text: "Blessed ", Order: 1},
				{Key: "add", Text: "is", Order: 2},
				{Key: "add*", Text: " the man", Order: 3},
			},
		},
		{
			name: "number followed by punctuation",
			line: `\fr 1:24 Some note`,
			want: []Token{
				{Key: "fr", Number: "1", Text: ":24 Some note", Order: 1},
			},
		},
		{
			name: "number directly before next tag",
			line: `\v 3\f + \ft note\f*`,
			want: []Token{
				{Key: "v", Number: "3", Text: "", Order: 1},
				{Key: "f", Text: "+ ", Order: 2},
				{Key: "ft", Text: "note", Order: 3},
				{Key: "f*", Text: "", Order: 4},
			},
		},
		{
			name: "digits inside text are text",
			line: `\v 5 Jacob had 12 sons.`,
			want: []Token{
				{Key: "v", Number: "5", Text: "Jacob had 12 sons.", Order: 1},
			},
		},
		{
			name: "stray backslash absorbed into previous text",
			line: `\p Some \V text`,
			want: []Token{
				{Key: "p", Text: `Some \V text`, Order: 1},
			},
		},
		{
			name: "leading free text ignored",
			line: `orphan words \p`,
			want: []Token{
				{Key: "p", Order: 1},
			},
		},
		{
			name: "chained verse range",
			line: `\v 1-2-3 text`,
			want: []Token{
				{Key: "v", Number: "1-2-3", Text: "text", Order: 1},
			},
		},
		{
			name: "number with trailing dash and plus",
			line: `\c 4- \v 7+ more`,
			want: []Token{
				{Key: "c", Number: "4-", Order: 1},
				{Key: "v", Number: "7+", Text: "more", Order: 2},
			},
		},
		{
			name: "invalid utf-8 replaced once per run",
			line: "\\v 1 \xff\xfe bad",
			want: []Token{
				{Key: "v", Number: "1", Text: "\ufffd bad", Order: 1},
			},
		},
		{
			name: "no tags",
			line: "just some text",
			want: nil,
		},
		{
			name: "empty line",
			line: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLine(%q)\n got  %#v\n want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestTokenizeOrderIsSequential(t *testing.T) {
	line := `\q1 \v 1 Blessed \add is\add* the man \f + \fr 1:1 \ft note\f* who walks`
	n := 0
	for tok := range Tokenize(line) {
		n++
		if tok.Order != n {
			t.Errorf("token %d has Order %d", n, tok.Order)
		}
	}
	if n != Count(line) {
		t.Errorf("Count = %d, ranged %d", Count(line), n)
	}
	if n != 8 {
		t.Errorf("expected 8 tokens, got %d", n)
	}
}

func TestTokenizeIsRestartable(t *testing.T) {
	seq := Tokenize(`\p \v 1 In the beginning`)

	var first, second []Token
	for tok := range seq {
		first = append(first, tok)
	}
	for tok := range seq {
		second = append(second, tok)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second iteration differs: %v vs %v", first, second)
	}
}

func TestTokenizeEarlyBreak(t *testing.T) {
	var keys []string
	for tok := range Tokenize(`\a \b \c 1 \d`) {
		keys = append(keys, tok.Key)
		if len(keys) == 2 {
			break
		}
	}
	if strings.Join(keys, ",") != "a,b" {
		t.Errorf("keys = %v", keys)
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok  Token
		want string
	}{
		{Token{Key: "v", Number: "1", Text: "In the beginning"}, `\v 1 In the beginning`},
		{Token{Key: "q"}, `\q`},
		{Token{Key: "c", Number: "3"}, `\c 3`},
		{Token{Key: "s1", Text: "Heading"}, `\s1 Heading`},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestTokenContent(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`\fr 1:24 `, "1:24 "},
		{`\s1 2 Kings begins`, "2 Kings begins"},
		{`\ft Plain text`, "Plain text"},
		{`\fv 3`, "3"},
		{`\ft 10, or twelve`, "10, or twelve"},
	}
	for _, tt := range tests {
		toks := ParseLine(tt.line)
		if len(toks) != 1 {
			t.Fatalf("ParseLine(%q) returned %d tokens", tt.line, len(toks))
		}
		if got := toks[0].Content(); got != tt.want {
			t.Errorf("Content(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestTokenIsCloser(t *testing.T) {
	for key, want := range map[string]bool{"f*": true, "add*": true, "f": false, "*": false, "v": false} {
		if got := (Token{Key: key}).IsCloser(); got != want {
			t.Errorf("IsCloser(%q) = %v, want %v", key, got, want)
		}
	}
}
