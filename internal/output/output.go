// Package output writes a generation result to disk in the layout the
// reader application loads: one HTML file per chapter plus JSON indexes,
// and a manifest hashing every file written.
package output

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/textgen/core/books"
	"github.com/FocuswithJustin/textgen/core/cas"
	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/internal/archive"
	"github.com/FocuswithJustin/textgen/internal/logging"
	"github.com/FocuswithJustin/textgen/internal/store"
	"github.com/FocuswithJustin/textgen/internal/validation"
)

// File names written next to the chapter files.
const (
	InfoFile     = "info.json"
	IndexFile    = "index.json"
	WordsFile    = "words.json"
	LemmasFile   = "lemmas.json"
	AboutFile    = "about.html"
	ManifestFile = "manifest.json"
)

// Options selects the optional exports.
type Options struct {
	// Version is recorded in the manifest.
	Version string

	// RunID identifies the run in the manifest. Empty means a new UUID.
	RunID string

	// CASDir, when set, also stores every file in a content-addressed
	// blob store rooted there.
	CASDir string

	// SQLitePath, when set, exports the result to a SQLite database.
	SQLitePath string

	// ArchivePath, when set, bundles the output directory into a tar.xz
	// or tar.gz archive after everything else is written.
	ArchivePath string

	// Catalog names the divisions in info.json. Nil means books.Default.
	Catalog books.Catalog
}

// Info is the info.json written for the reader: the text description plus
// the division and section lists that drive navigation.
type Info struct {
	generator.TextInfo
	Divisions     []string `json:"divisions"`
	DivisionNames []string `json:"divisionNames"`
	Sections      []string `json:"sections"`
}

// FileEntry records one written file.
type FileEntry struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// Manifest lists every file of a run with its hashes.
type Manifest struct {
	RunID       string      `json:"run_id"`
	TextID      string      `json:"text_id"`
	Version     string      `json:"version"`
	GeneratedAt string      `json:"generated_at"`
	Chapters    int         `json:"chapters"`
	Files       []FileEntry `json:"files"`
	TotalSize   int64       `json:"total_size"`
	SQLite      string      `json:"sqlite,omitempty"`
	Archive     string      `json:"archive,omitempty"`
}

type writer struct {
	dir      string
	blobs    *cas.Store
	manifest *Manifest
}

// Write writes res under dir and returns the manifest, which is also
// written as manifest.json.
func Write(ctx context.Context, dir string, info generator.TextInfo, res *generator.Result, opts Options) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewIO("create", dir, err)
	}

	w := &writer{
		dir: dir,
		manifest: &Manifest{
			RunID:       opts.RunID,
			TextID:      info.ID,
			Version:     opts.Version,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Chapters:    len(res.Chapters),
		},
	}
	if w.manifest.RunID == "" {
		w.manifest.RunID = uuid.NewString()
	}
	previous := readManifest(dir)
	if opts.CASDir != "" {
		blobs, err := cas.NewStore(opts.CASDir)
		if err != nil {
			return nil, err
		}
		w.blobs = blobs
	}

	for _, doc := range res.Chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := doc.ID + ".html"
		if err := validation.ValidateFilename(name); err != nil {
			return nil, errors.NewValidation("chapter id", fmt.Sprintf("%q: %v", doc.ID, err))
		}
		if err := w.write(name, "chapter", []byte(doc.HTML)); err != nil {
			return nil, err
		}
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog = books.Default()
	}
	if err := w.writeJSON(InfoFile, "info", BuildInfo(info, res, catalog)); err != nil {
		return nil, err
	}
	if err := w.writeJSON(IndexFile, "index", res.Links); err != nil {
		return nil, err
	}
	if res.Words != nil {
		if err := w.writeJSON(WordsFile, "words", res.Words); err != nil {
			return nil, err
		}
	}
	if len(res.Lemmas) > 0 {
		if err := w.writeJSON(LemmasFile, "lemmas", res.Lemmas); err != nil {
			return nil, err
		}
	}
	if res.AboutHTML != "" {
		if err := w.write(AboutFile, "about", []byte(res.AboutHTML)); err != nil {
			return nil, err
		}
	}

	if opts.SQLitePath != "" {
		if err := exportSQLite(ctx, opts.SQLitePath, info, res); err != nil {
			return nil, err
		}
		w.manifest.SQLite = opts.SQLitePath
	}
	if opts.ArchivePath != "" {
		w.manifest.Archive = opts.ArchivePath
	}

	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode manifest")
	}
	if err := w.save(ManifestFile, "manifest", data); err != nil {
		return nil, err
	}

	w.prune(previous)

	if opts.ArchivePath != "" {
		files := []string{ManifestFile}
		for _, f := range w.manifest.Files {
			files = append(files, f.Path)
		}
		if err := archive.Create(dir, opts.ArchivePath, cmp.Or(info.ID, filepath.Base(dir)), files); err != nil {
			return nil, err
		}
		if fi, err := os.Stat(opts.ArchivePath); err == nil {
			logging.OutputWritten("archive", opts.ArchivePath, fi.Size())
		}
	}
	return w.manifest, nil
}

func exportSQLite(ctx context.Context, path string, info generator.TextInfo, res *generator.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO("create", filepath.Dir(path), err)
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Save(ctx, info, res); err != nil {
		return err
	}
	if fi, err := os.Stat(path); err == nil {
		logging.OutputWritten("sqlite", path, fi.Size())
	}
	return nil
}

// write saves a file and records it in the manifest.
func (w *writer) write(name, kind string, data []byte) error {
	if err := w.save(name, kind, data); err != nil {
		return err
	}
	d := cas.Sum(data)
	if w.blobs != nil {
		var err error
		if d, err = w.blobs.Put(data); err != nil {
			return err
		}
	}
	w.manifest.Files = append(w.manifest.Files, FileEntry{
		Path:   name,
		Kind:   kind,
		SHA256: d.SHA256,
		BLAKE3: d.BLAKE3,
		Size:   d.Size,
	})
	w.manifest.TotalSize += d.Size
	return nil
}

func (w *writer) writeJSON(name, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", name)
	}
	return w.write(name, kind, data)
}

func (w *writer) save(name, kind string, data []byte) error {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	logging.OutputWritten(kind, path, int64(len(data)))
	return nil
}

// readManifest returns the manifest left in dir by an earlier run, or nil.
func readManifest(dir string) *Manifest {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		logging.Warn("ignoring unreadable manifest", "dir", dir, "error", err)
		return nil
	}
	return &m
}

// prune removes files an earlier run wrote that this run did not. Only
// plain file names listed in the old manifest are touched.
func (w *writer) prune(previous *Manifest) {
	if previous == nil {
		return
	}
	current := make(map[string]bool, len(w.manifest.Files))
	for _, f := range w.manifest.Files {
		current[f.Path] = true
	}
	for _, f := range previous.Files {
		if current[f.Path] || validation.ValidateFilename(f.Path) != nil {
			continue
		}
		path := filepath.Join(w.dir, f.Path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn("failed to remove stale output", "path", path, "error", err)
			continue
		}
		logging.Debug("removed stale output", "path", path)
	}
}

// BuildInfo derives the reader's info.json from the text info and the
// generated chapters. Divisions follow the first appearance of each book.
func BuildInfo(info generator.TextInfo, res *generator.Result, catalog books.Catalog) Info {
	out := Info{
		TextInfo:      info,
		Divisions:     []string{},
		DivisionNames: []string{},
		Sections:      []string{},
	}
	out.Dir = info.Direction()

	for _, doc := range res.Chapters {
		out.Sections = append(out.Sections, doc.ID)
		if slices.Contains(out.Divisions, doc.BookCode) {
			continue
		}
		out.Divisions = append(out.Divisions, doc.BookCode)
		out.DivisionNames = append(out.DivisionNames, divisionName(doc, catalog))
	}
	return out
}

func divisionName(doc *generator.ChapterDocument, catalog books.Catalog) string {
	if book, ok := catalog.Lookup(doc.BookCode); ok {
		return book.DisplayName()
	}
	suffix := " " + strconv.Itoa(doc.Chapter)
	if name, ok := strings.CutSuffix(doc.Title, suffix); ok && name != "" {
		return name
	}
	return doc.BookCode
}
