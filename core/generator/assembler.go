package generator

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/FocuswithJustin/textgen/core/books"
	"github.com/FocuswithJustin/textgen/core/usfm"
)

// block is an entry of the open-block stack.
type block struct {
	key    string
	family string
	level  int
	node   *html.Node
}

type charSpan struct {
	key  string
	node *html.Node
}

// note is a footnote or cross reference being filled.
type note struct {
	n       int
	verseID string
	text    *html.Node
	inner   *html.Node
	chars   []charSpan
}

// chapter collects the content of one chapter. Content before the first
// \c of a book goes into a chapter without a document, which is merged
// into the first real chapter.
type chapter struct {
	doc    *ChapterDocument
	root   *html.Node
	header *html.Node

	arena []block
	open  []int
	chars []charSpan

	verse    *html.Node
	verseID  string
	verseNum int

	note      *note
	noteCount int
	footnotes []*html.Node
}

func (c *chapter) prelude() bool { return c.doc == nil }

// batch is the state shared by every book of one Generate call.
type batch struct {
	info    TextInfo
	tags    TagTable
	words   *wordIndexer
	lemmas  LemmaIndex
	unknown map[string]struct{}
}

// usfmLookup is implemented by catalogs that can resolve USFM book ids.
type usfmLookup interface {
	LookupUSFM(usfm string) (books.Book, bool)
}

// assembler folds the tokens of one book into chapter documents.
type assembler struct {
	b       *batch
	catalog books.Catalog
	src     BookSource

	book     books.Book
	known    bool
	resolved bool
	idCode   string
	running  string // \h
	toc      string // \toc1

	cur         *chapter
	lastChapter int
	docs        []*ChapterDocument
	unknown     map[string]struct{}
}

func newAssembler(b *batch, catalog books.Catalog, src BookSource) *assembler {
	return &assembler{
		b:       b,
		catalog: catalog,
		src:     src,
		unknown: make(map[string]struct{}),
	}
}

func (a *assembler) line(line string) {
	for tok := range usfm.Tokenize(line) {
		a.token(tok)
	}
}

func (a *assembler) token(tok usfm.Token) {
	spec, ok := a.b.tags.Lookup(tok.Key)
	if !ok {
		a.unknownTag(tok)
		return
	}

	switch spec.Kind {
	case KindHeader:
		a.header(tok)
	case KindChapter:
		a.chapterTag(tok)
	case KindChapterChar:
		a.chapterChar(tok)
	case KindVerse:
		a.verse(tok)
	case KindBlock:
		a.openBlock(tok, spec)
	case KindLabel:
		a.openLabel(tok, spec)
	case KindNoteOpen:
		a.openNote(tok)
	case KindNoteSpan:
		a.noteSpan(tok, spec)
	case KindNoteClose:
		a.closeNote()
		a.write(tok.Text)
	case KindCharStyle, KindLemma:
		a.openChar(tok, spec)
	case KindCharClose:
		a.closeChar(tok)
	default:
		a.unknownTag(tok)
	}
}

// close finishes the book and returns its chapters.
func (a *assembler) close() []*ChapterDocument {
	if a.cur != nil && !a.cur.prelude() {
		a.flush()
	}
	a.cur = nil
	return a.docs
}

func (a *assembler) header(tok usfm.Token) {
	text := strings.TrimSpace(tok.Content())
	switch tok.Key {
	case "id":
		if fields := strings.Fields(text); len(fields) > 0 && a.idCode == "" {
			a.idCode = strings.ToUpper(fields[0])
		}
	case "h":
		a.running = cmp.Or(a.running, text)
	case "toc1":
		a.toc = cmp.Or(a.toc, text)
	}
}

// resolve looks the book up in the catalog once its \id has been seen.
func (a *assembler) resolve() {
	if a.resolved {
		return
	}
	a.resolved = true

	if a.src.Code != "" {
		a.book, a.known = a.catalog.Lookup(a.src.Code)
		if !a.known {
			a.book = books.Book{Code: strings.ToUpper(a.src.Code)}
		}
		return
	}
	if a.idCode != "" {
		if u, ok := a.catalog.(usfmLookup); ok {
			if a.book, a.known = u.LookupUSFM(a.idCode); a.known {
				return
			}
		}
		if a.book, a.known = a.catalog.Lookup(a.idCode); a.known {
			return
		}
	}
	a.book = books.Book{Code: cmp.Or(a.idCode, "XX")}
}

func (a *assembler) displayName() string {
	if a.known {
		return a.book.DisplayName()
	}
	return cmp.Or(a.running, a.toc, a.book.Code)
}

func (a *assembler) headerText(n int) string {
	if a.book.IsPsalms() {
		return "Psalm " + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ensureContext opens the prelude when no chapter has been started.
func (a *assembler) ensureContext() *chapter {
	if a.cur == nil {
		a.cur = &chapter{root: div("")}
	}
	return a.cur
}

func (a *assembler) chapterTag(tok usfm.Token) {
	n, ok := leadingInt(tok.Number)
	if !ok || n <= 0 {
		n = a.lastChapter + 1
	}
	a.startChapter(n)
	a.write(tok.Text)
}

func (a *assembler) startChapter(n int) {
	a.resolve()

	prev := a.cur
	if prev != nil && !prev.prelude() {
		a.flush()
	}

	code := a.book.Code
	id := code + strconv.Itoa(n)
	doc := &ChapterDocument{
		ID:       id,
		BookCode: code,
		Chapter:  n,
		Title:    a.displayName() + " " + strconv.Itoa(n),
	}

	classes := []string{"section", "chapter", code, id}
	if a.b.info.ID != "" {
		classes = append(classes, a.b.info.ID)
	}
	root := div(strings.Join(classes, " "),
		attr("dir", a.b.info.Direction()),
		attr("lang", a.b.info.Lang),
		attr("data-id", id),
		attr("data-previd", ""),
		attr("data-nextid", ""),
	)

	c := &chapter{doc: doc, root: root}
	if prev != nil && prev.prelude() {
		a.closeOpen()
		moveChildren(root, prev.root)
		c.noteCount = prev.noteCount
		c.footnotes = prev.footnotes
	}

	c.header = div("c")
	appendText(c.header, a.headerText(n))
	root.AppendChild(c.header)

	doc.root = root
	a.cur = c
	a.lastChapter = n
}

// flush closes the current chapter and appends its document.
func (a *assembler) flush() {
	c := a.cur
	a.closeOpen()
	if len(c.footnotes) > 0 {
		list := div("footnotes")
		for _, fn := range c.footnotes {
			list.AppendChild(fn)
		}
		c.root.AppendChild(list)
	}
	c.doc.Footnotes = len(c.footnotes)
	a.docs = append(a.docs, c.doc)
}

// closeOpen ends every open element of the current chapter.
func (a *assembler) closeOpen() {
	c := a.cur
	if c == nil {
		return
	}
	a.closeNote()
	c.chars = nil
	c.open = c.open[:0]
	c.verse = nil
	c.verseID = ""
}

func (a *assembler) chapterChar(tok usfm.Token) {
	c := a.cur
	if c == nil || c.prelude() {
		return
	}
	cp := span("cp")
	appendText(cp, strings.TrimSpace(tok.Content()))
	c.header.AppendChild(cp)
}

var verseLabel = regexp.MustCompile(`^(\d+)[a-z]?(?:-\d+[a-z]?)?`)

// verseNumber returns the verse number, its display label and the verse
// text. A missing or malformed number continues from prev.
func verseNumber(tok usfm.Token, prev int) (int, string, string) {
	if n, ok := leadingInt(tok.Number); ok && n > 0 {
		return n, tok.Number, tok.Text
	}
	if m := verseLabel.FindStringSubmatch(tok.Text); m != nil {
		rest := tok.Text[len(m[0]):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n, m[0], strings.TrimLeft(rest, " \t")
			}
		}
	}
	return prev + 1, strconv.Itoa(prev + 1), tok.Text
}

func (a *assembler) verse(tok usfm.Token) {
	if a.cur == nil || a.cur.prelude() {
		a.startChapter(a.lastChapter + 1)
	}
	c := a.cur
	a.closeNote()
	c.chars = nil

	num, label, text := verseNumber(tok, c.verseNum)
	c.verseNum = num

	parent := a.topBlock()
	if parent == nil {
		a.pushBlock("p", TagSpec{Kind: KindBlock, Class: "p", Family: FamilyParagraph, Level: 1})
		parent = a.topBlock()
	}

	n := strconv.Itoa(num)
	id := c.doc.ID + "_" + n
	vnum := span("v-num v-" + n)
	appendText(vnum, label+"\u00a0")
	parent.AppendChild(vnum)

	v := span("v "+id, attr("data-id", id))
	parent.AppendChild(v)
	c.verse = v
	c.verseID = id

	a.write(text)
}

func (a *assembler) topBlock() *html.Node {
	c := a.cur
	if c == nil || len(c.open) == 0 {
		return nil
	}
	return c.arena[c.open[len(c.open)-1]].node
}

func (a *assembler) openBlock(tok usfm.Token, spec TagSpec) {
	c := a.ensureContext()
	a.closeNote()
	c.chars = nil
	// a verse running on into the new block continues in a new span
	c.verse = nil

	a.pushBlock(tok.Key, spec)
	a.write(tok.Content())
}

// pushBlock closes blocks that cannot contain the new one and opens it.
func (a *assembler) pushBlock(key string, spec TagSpec) {
	c := a.cur
	for len(c.open) > 0 {
		top := c.arena[c.open[len(c.open)-1]]
		if top.family == spec.Family && top.level < spec.Level {
			break
		}
		c.open = c.open[:len(c.open)-1]
	}

	parent := c.root
	if top := a.topBlock(); top != nil {
		parent = top
	}
	node := div(spec.Class)
	parent.AppendChild(node)
	if spec.Level == 0 {
		return
	}

	c.arena = append(c.arena, block{key: key, family: spec.Family, level: spec.Level, node: node})
	c.open = append(c.open, len(c.arena)-1)
}

// openLabel appends a heading at chapter level. A verse interrupted by the
// heading continues in the next block; the heading text itself belongs to
// no verse.
func (a *assembler) openLabel(tok usfm.Token, spec TagSpec) {
	c := a.ensureContext()
	a.closeNote()
	c.chars = nil
	c.open = c.open[:0]
	c.verse = nil

	node := div(spec.Class)
	c.root.AppendChild(node)
	appendText(node, tok.Content())
}

// cursor returns the element that receives inline content and whether that
// content is verse text.
func (a *assembler) cursor() (*html.Node, bool) {
	c := a.ensureContext()
	if n := c.note; n != nil {
		if k := len(n.chars); k > 0 {
			return n.chars[k-1].node, false
		}
		if n.inner != nil {
			return n.inner, false
		}
		return n.text, false
	}
	if k := len(c.chars); k > 0 {
		return c.chars[k-1].node, c.verseID != ""
	}
	if c.verse != nil {
		return c.verse, true
	}

	parent := a.topBlock()
	if parent == nil {
		parent = c.root
	}
	if c.verseID != "" {
		v := span("v "+c.verseID, attr("data-id", c.verseID))
		parent.AppendChild(v)
		c.verse = v
		return v, true
	}
	return parent, false
}

// write appends text at the cursor.
func (a *assembler) write(text string) {
	if text == "" {
		return
	}
	target, inVerse := a.cursor()
	appendText(target, text)
	if inVerse {
		a.b.words.add(text, a.cur.verseID)
	}
}

func (a *assembler) openChar(tok usfm.Token, spec TagSpec) {
	parent, inVerse := a.cursor()
	c := a.cur

	display, attrs := splitAttributes(tok.Content())
	s := span(spec.Class)
	parent.AppendChild(s)
	appendText(s, display)

	entry := charSpan{key: tok.Key, node: s}
	if c.note != nil {
		c.note.chars = append(c.note.chars, entry)
	} else {
		c.chars = append(c.chars, entry)
	}

	if !inVerse {
		return
	}
	a.b.words.add(display, c.verseID)
	if spec.Kind == KindLemma {
		a.b.lemmas.add(lemmaOf(display, attrs), c.verseID)
	}
}

func (a *assembler) closeChar(tok usfm.Token) {
	c := a.ensureContext()
	base := strings.TrimSuffix(tok.Key, "*")

	stack := &c.chars
	if c.note != nil {
		stack = &c.note.chars
	}
	for i := len(*stack) - 1; i >= 0; i-- {
		if (*stack)[i].key == base {
			*stack = (*stack)[:i]
			break
		}
	}
	a.write(tok.Text)
}

// stripCaller removes the note caller ("+", "-", "?" or a custom
// character) from the start of a note's text.
func stripCaller(text string) string {
	text = strings.TrimLeft(text, " \t")
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || unicode.IsSpace(r) {
		return text
	}
	rest := text[size:]
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
		return strings.TrimLeft(rest, " \t")
	}
	return text
}

func (a *assembler) openNote(tok usfm.Token) {
	a.closeNote()
	parent, _ := a.cursor()
	c := a.cur

	c.noteCount++
	num := strconv.Itoa(c.noteCount)

	node := span("note", attr("id", "note-"+num))
	if c.verseID != "" {
		node.Attr = append(node.Attr, attr("data-id", c.verseID))
	}
	key := element(atom.A, "key", attr("href", "#footnote-"+num))
	appendText(key, num)
	text := span("text")
	node.AppendChild(key)
	node.AppendChild(text)
	parent.AppendChild(node)

	c.note = &note{n: c.noteCount, verseID: c.verseID, text: text}
	appendText(text, stripCaller(tok.Content()))
}

func (a *assembler) noteSpan(tok usfm.Token, spec TagSpec) {
	c := a.cur
	if c == nil || c.note == nil {
		if spec.Closer {
			a.write(tok.Text)
			return
		}
		a.unknownTag(tok)
		return
	}

	n := c.note
	n.chars = nil
	if spec.Closer {
		n.inner = nil
		a.write(tok.Text)
		return
	}
	s := span(spec.Class)
	n.text.AppendChild(s)
	n.inner = s
	a.write(tok.Content())
}

// closeNote ends the open note and adds its entry to the footnote list.
func (a *assembler) closeNote() {
	c := a.cur
	if c == nil || c.note == nil {
		return
	}
	n := c.note
	c.note = nil

	num := strconv.Itoa(n.n)
	fn := span("footnote", attr("id", "footnote-"+num))
	key := span("key")
	appendText(key, num)
	back := element(atom.A, "backref", attr("href", "#note-"+num))
	appendText(back, cmp.Or(n.verseID, num))
	fn.AppendChild(key)
	fn.AppendChild(back)
	fn.AppendChild(cloneTree(n.text))
	c.footnotes = append(c.footnotes, fn)
}

// unknownTag passes the tag through as an inline span and records it.
func (a *assembler) unknownTag(tok usfm.Token) {
	key := cmp.Or(strings.TrimSuffix(tok.Key, "*"), tok.Key)
	a.unknown[key] = struct{}{}
	a.b.unknown[key] = struct{}{}

	if tok.IsCloser() {
		a.write(tok.Text)
		return
	}

	parent, inVerse := a.cursor()
	s := span("usfm usfm-"+key, attr("data-tag", key))
	parent.AppendChild(s)

	text := tok.Content()
	appendText(s, text)
	if inVerse {
		a.b.words.add(text, a.cur.verseID)
	}
}

// unrecognized returns the unknown tags of this book in order.
func (a *assembler) unrecognized() []string {
	return slices.Sorted(maps.Keys(a.unknown))
}

// leadingInt parses the digits at the start of s ("12", "1-2" gives 1).
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
