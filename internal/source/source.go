// Package source reads a translation's input directory: one USFM file per
// book plus an optional about page.
package source

import (
	"bufio"
	"cmp"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gomarkdown/markdown"

	"github.com/FocuswithJustin/textgen/core/books"
	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/core/usfm"
	"github.com/FocuswithJustin/textgen/internal/logging"
)

// Extensions lists the file extensions read as USFM.
var Extensions = []string{".usfm", ".sfm", ".txt"}

// maxLine bounds a single physical line.
const maxLine = 1 << 20

// Catalog resolves both catalog codes and USFM codes.
type Catalog interface {
	books.Catalog
	LookupUSFM(code string) (books.Book, bool)
}

type scanned struct {
	src   generator.BookSource
	order int
}

// Scan reads every USFM file in dir and returns the books in canon order.
// Files are matched to the catalog through their \id line; files without
// one are skipped, and so are later files repeating a book already read.
// Books the catalog does not know keep an empty Code and sort last.
func Scan(ctx context.Context, dir string, catalog Catalog) ([]generator.BookSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("source directory", dir)
		}
		return nil, errors.NewIO("read", dir, err)
	}

	var found []scanned
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, entry.Name())
		lines, err := ReadLines(path)
		if err != nil {
			return nil, err
		}
		id := BookID(lines)
		if id == "" {
			logging.Warn("skipping file without \\id line", "path", path)
			continue
		}

		src := generator.BookSource{File: entry.Name(), Lines: lines}
		order := int(^uint(0) >> 1)
		if book, ok := catalog.LookupUSFM(id); ok {
			src.Code, order = book.Code, book.SortOrder
		} else if book, ok := catalog.Lookup(id); ok {
			src.Code, order = book.Code, book.SortOrder
		}

		key := cmp.Or(src.Code, id)
		if prev, dup := seen[key]; dup {
			logging.Warn("skipping duplicate book", "book", key, "path", path, "kept", prev)
			continue
		}
		seen[key] = entry.Name()

		logging.SourceLoaded(key, path, len(lines))
		found = append(found, scanned{src: src, order: order})
	}

	slices.SortStableFunc(found, func(a, b scanned) int {
		return cmp.Or(cmp.Compare(a.order, b.order), strings.Compare(a.src.File, b.src.File))
	})

	sources := make([]generator.BookSource, len(found))
	for i, f := range found {
		sources[i] = f.src
	}
	return sources, nil
}

// ReadLines returns the lines of a file without line terminators or a
// leading byte order mark.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return lines, nil
}

// BookID returns the upper-cased book code of the first \id tag, or "".
func BookID(lines []string) string {
	for _, line := range lines {
		for tok := range usfm.Tokenize(line) {
			if tok.Key != "id" {
				continue
			}
			if fields := strings.Fields(tok.Content()); len(fields) > 0 {
				return strings.ToUpper(fields[0])
			}
			return ""
		}
	}
	return ""
}

// About returns the about page of the text as HTML: about.html verbatim,
// or about.md rendered from Markdown. A directory with neither yields "".
func About(dir string) (string, error) {
	htmlPath := filepath.Join(dir, "about.html")
	data, err := os.ReadFile(htmlPath)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", errors.NewIO("read", htmlPath, err)
	}

	mdPath := filepath.Join(dir, "about.md")
	data, err = os.ReadFile(mdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewIO("read", mdPath, err)
	}
	return string(markdown.ToHTML(data, nil, nil)), nil
}
