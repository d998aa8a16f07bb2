package generator

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/textgen/core/books"
)

// Generate assembles every book of sources, in order, and links the
// resulting chapters. A nil catalog means books.Default(). Malformed markup
// never fails the run; unknown tags are passed through and listed in
// Result.Unrecognized. Empty input gives an empty Result.
func Generate(sources []BookSource, info TextInfo, catalog books.Catalog, opts Options) (*Result, error) {
	if catalog == nil {
		catalog = books.Default()
	}
	log := opts.logger()

	b := &batch{
		info:    info,
		tags:    opts.tags(),
		lemmas:  make(LemmaIndex),
		unknown: make(map[string]struct{}),
	}
	if !opts.DisableWordIndex {
		b.words = newWordIndexer(info.Lang)
	}

	docs := []*ChapterDocument{}
	for _, src := range sources {
		a := newAssembler(b, catalog, src)
		for _, line := range src.Lines {
			a.line(line)
		}
		chapters := a.close()
		log.Debug("book assembled",
			"book", a.book.Code,
			"file", src.File,
			"chapters", len(chapters))
		if unknown := a.unrecognized(); len(unknown) > 0 {
			log.Debug("unrecognized tags", "book", a.book.Code, "tags", unknown)
		}
		docs = append(docs, chapters...)
	}

	if err := render(docs); err != nil {
		return nil, err
	}

	unknown := slices.Sorted(maps.Keys(b.unknown))
	if unknown == nil {
		unknown = []string{}
	}
	return &Result{
		Chapters:     docs,
		Links:        linkIndex(docs),
		Lemmas:       b.lemmas,
		Words:        b.words.index(),
		AboutHTML:    opts.AboutHTML,
		Unrecognized: unknown,
	}, nil
}

// Assemble generates the chapters of a single book.
func Assemble(src BookSource, catalog books.Catalog, info TextInfo, opts Options) ([]*ChapterDocument, error) {
	res, err := Generate([]BookSource{src}, info, catalog, opts)
	if err != nil {
		return nil, err
	}
	return res.Chapters, nil
}

// render links each chapter to its neighbours and serializes its tree.
func render(docs []*ChapterDocument) error {
	var buf bytes.Buffer
	for i, doc := range docs {
		doc.PreviousID, doc.NextID = "", ""
		if i > 0 {
			doc.PreviousID = Link(docs[i-1].ID)
		}
		if i+1 < len(docs) {
			doc.NextID = Link(docs[i+1].ID)
		}
		setAttr(doc.root, "data-previd", string(doc.PreviousID))
		setAttr(doc.root, "data-nextid", string(doc.NextID))

		buf.Reset()
		if err := html.Render(&buf, doc.root); err != nil {
			return fmt.Errorf("failed to render %s: %w", doc.ID, err)
		}
		doc.HTML = buf.String()
	}
	return nil
}

func linkIndex(docs []*ChapterDocument) LinkIndex {
	idx := LinkIndex{
		Sections: make([]string, 0, len(docs)),
		Links:    make(map[string]ChapterLink, len(docs)),
	}
	for _, doc := range docs {
		idx.Sections = append(idx.Sections, doc.ID)
		idx.Links[doc.ID] = ChapterLink{
			Title:      doc.Title,
			PreviousID: doc.PreviousID,
			NextID:     doc.NextID,
		}
	}
	return idx
}
