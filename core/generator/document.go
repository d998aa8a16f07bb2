// Package generator assembles tokenized USFM books into HTML chapter
// documents for the reader application.
//
// Generate is the batch entry point: it folds every line of every book
// through a tag dispatch table, splits the output at chapter boundaries,
// links adjacent chapters and builds the search indexes. The package does
// no I/O; callers supply source lines and write the Result themselves.
package generator

import (
	"encoding/json"
	"log/slog"

	"golang.org/x/net/html"
)

// TextInfo describes the translation being generated. It mirrors the
// reader's info.json.
type TextInfo struct {
	ID              string `json:"id"`
	Abbr            string `json:"abbr"`
	Name            string `json:"name"`
	NameEnglish     string `json:"nameEnglish"`
	Lang            string `json:"lang"`
	LangName        string `json:"langName"`
	LangNameEnglish string `json:"langNameEnglish"`
	Dir             string `json:"dir"`
	Generator       string `json:"generator"`
}

// Direction returns the text direction, "ltr" unless set.
func (i TextInfo) Direction() string {
	if i.Dir == "" {
		return "ltr"
	}
	return i.Dir
}

// BookSource is the raw content of one book file.
type BookSource struct {
	// Code is the catalog code of the book ("RM"). When empty the USFM code
	// from the \id line is used.
	Code string

	// File names the source for diagnostics.
	File string

	Lines []string
}

// Link is a chapter id that encodes as JSON null when empty.
type Link string

// MarshalJSON implements json.Marshaler.
func (l Link) MarshalJSON() ([]byte, error) {
	if l == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(l))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Link) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = Link(s)
	return nil
}

// ChapterDocument is one rendered chapter.
type ChapterDocument struct {
	ID         string `json:"id"`
	BookCode   string `json:"book"`
	Chapter    int    `json:"chapter"`
	Title      string `json:"title"`
	PreviousID Link   `json:"previd"`
	NextID     Link   `json:"nextid"`
	HTML       string `json:"html"`
	Footnotes  int    `json:"footnotes"`

	root *html.Node
}

// ChapterLink is the entry of one chapter in the LinkIndex.
type ChapterLink struct {
	Title      string `json:"title"`
	PreviousID Link   `json:"previd"`
	NextID     Link   `json:"nextid"`
}

// LinkIndex records chapter order and neighbours.
type LinkIndex struct {
	Sections []string               `json:"sections"`
	Links    map[string]ChapterLink `json:"links"`
}

// WordIndex maps a lowercased word to the verse ids containing it, in
// document order.
type WordIndex map[string][]string

// LemmaIndex maps a lemma to the verse ids containing it.
type LemmaIndex map[string][]string

// Result is the output of one Generate call.
type Result struct {
	Chapters     []*ChapterDocument `json:"chapterData"`
	Links        LinkIndex          `json:"indexData"`
	Lemmas       LemmaIndex         `json:"indexLemmaData"`
	Words        WordIndex          `json:"wordData"`
	AboutHTML    string             `json:"aboutHtml"`
	Unrecognized []string           `json:"unrecognized"`
}

// Options adjusts a Generate run. The zero value is valid.
type Options struct {
	// Tags overrides the dispatch table. Nil means DefaultTagTable.
	Tags TagTable

	// AboutHTML is copied to Result.AboutHTML.
	AboutHTML string

	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger

	// DisableWordIndex skips building Result.Words.
	DisableWordIndex bool
}

func (o Options) tags() TagTable {
	if o.Tags == nil {
		return DefaultTagTable()
	}
	return o.Tags
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
