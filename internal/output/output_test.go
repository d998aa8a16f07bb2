package output

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/FocuswithJustin/textgen/core/books"
	"github.com/FocuswithJustin/textgen/core/cas"
	texterrors "github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/internal/archive"
	"github.com/FocuswithJustin/textgen/internal/store"
)

var udb = generator.TextInfo{
	ID:        "uw_en_udb",
	Abbr:      "UDB",
	Name:      "Unlocked Dynamic Bible",
	Lang:      "eng",
	Generator: "uw_usfm",
}

func sample(t *testing.T) *generator.Result {
	t.Helper()
	res, err := generator.Generate([]generator.BookSource{
		{Code: "JM", Lines: []string{`\id JAS`, `\c 1`, `\p`, `\v 1 I am James.`, `\c 2`, `\v 1 My brothers.`}},
		{Code: "JD", Lines: []string{`\id JUD`, `\c 1`, `\p`, `\v 1 I am Jude.`}},
	}, udb, nil, generator.Options{AboutHTML: "<p>About</p>"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return res
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "udb")
	res := sample(t)

	m, err := Write(context.Background(), dir, udb, res, Options{Version: "1.2.3", RunID: "run-1"})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	for _, name := range []string{"JM1.html", "JM2.html", "JD1.html", InfoFile, IndexFile, WordsFile, AboutFile, ManifestFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, LemmasFile)); !os.IsNotExist(err) {
		t.Errorf("lemmas.json written for an empty lemma index")
	}

	html, _ := os.ReadFile(filepath.Join(dir, "JM2.html"))
	if string(html) != res.Chapters[1].HTML {
		t.Error("chapter file differs from the generated HTML")
	}

	var info Info
	readJSON(t, filepath.Join(dir, InfoFile), &info)
	if !slices.Equal(info.Divisions, []string{"JM", "JD"}) {
		t.Errorf("divisions = %v", info.Divisions)
	}
	if !slices.Equal(info.DivisionNames, []string{"James", "Jude"}) {
		t.Errorf("divisionNames = %v", info.DivisionNames)
	}
	if !slices.Equal(info.Sections, []string{"JM1", "JM2", "JD1"}) {
		t.Errorf("sections = %v", info.Sections)
	}
	if info.ID != "uw_en_udb" || info.Dir != "ltr" {
		t.Errorf("text info = %+v", info.TextInfo)
	}

	var index generator.LinkIndex
	readJSON(t, filepath.Join(dir, IndexFile), &index)
	if index.Links["JD1"].PreviousID != "JM2" || index.Links["JD1"].NextID != "" {
		t.Errorf("JD1 links = %+v", index.Links["JD1"])
	}

	var onDisk Manifest
	readJSON(t, filepath.Join(dir, ManifestFile), &onDisk)
	if onDisk.RunID != "run-1" || onDisk.Version != "1.2.3" || onDisk.Chapters != 3 {
		t.Errorf("manifest = %+v", onDisk)
	}
	if len(m.Files) != 7 {
		t.Errorf("len(Files) = %d, want 7", len(m.Files))
	}

	var total int64
	for _, f := range m.Files {
		data, err := os.ReadFile(filepath.Join(dir, f.Path))
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Path, err)
		}
		d := cas.Sum(data)
		if f.SHA256 != d.SHA256 || f.BLAKE3 != d.BLAKE3 || f.Size != d.Size {
			t.Errorf("%s: manifest entry does not match file", f.Path)
		}
		total += f.Size
	}
	if m.TotalSize != total {
		t.Errorf("TotalSize = %d, want %d", m.TotalSize, total)
	}
}

func TestWriteNewRunID(t *testing.T) {
	a, err := Write(context.Background(), t.TempDir(), udb, sample(t), Options{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	b, err := Write(context.Background(), t.TempDir(), udb, sample(t), Options{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids = %q, %q; want distinct", a.RunID, b.RunID)
	}
}

func TestWriteExports(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "udb")
	opts := Options{
		CASDir:      filepath.Join(root, "cas"),
		SQLitePath:  filepath.Join(root, "db", "udb.db"),
		ArchivePath: filepath.Join(root, "dist", "udb.tar.xz"),
	}

	m, err := Write(context.Background(), dir, udb, sample(t), opts)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	blobs, err := cas.NewStore(opts.CASDir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for _, f := range m.Files {
		if !blobs.Has(f.SHA256) {
			t.Errorf("blob for %s missing", f.Path)
		}
	}

	db, err := store.Open(opts.SQLitePath)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer db.Close()
	chapters, _, err := db.Counts(context.Background())
	if err != nil || chapters != 3 {
		t.Errorf("sqlite chapters = %d, %v", chapters, err)
	}

	got, problems, err := VerifyArchive(opts.ArchivePath)
	if err != nil {
		t.Fatalf("VerifyArchive() error = %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("VerifyArchive() problems = %v", problems)
	}
	if got.RunID != m.RunID || got.Archive != opts.ArchivePath {
		t.Errorf("bundled manifest = %+v", got)
	}
}

func TestArchiveSkipsStoreAndStrayFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}
	opts := Options{
		CASDir:      filepath.Join(dir, ".cas"),
		ArchivePath: filepath.Join(dir, "udb.tar.gz"),
	}
	m, err := Write(context.Background(), dir, udb, sample(t), opts)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := archive.Contents(opts.ArchivePath)
	if err != nil {
		t.Fatalf("archive.Contents() error = %v", err)
	}
	if len(entries) != len(m.Files)+1 {
		t.Errorf("bundled %d files, want %d", len(entries), len(m.Files)+1)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".cas") || e.Name == "notes.txt" || e.Name == "udb.tar.gz" {
			t.Errorf("unexpected bundle entry %s", e.Name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("unlisted file removed: %v", err)
	}
}

func TestWritePrunesStaleOutput(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(context.Background(), dir, udb, sample(t), Options{}); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	res, err := generator.Generate([]generator.BookSource{
		{Code: "JD", Lines: []string{`\id JUD`, `\c 1`, `\p`, `\v 1 I am Jude.`}},
	}, udb, nil, generator.Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := Write(context.Background(), dir, udb, res, Options{}); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	for _, name := range []string{"JM1.html", "JM2.html", AboutFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("stale %s left behind", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "JD1.html")); err != nil {
		t.Errorf("JD1.html missing: %v", err)
	}
}

func TestVerifyArchiveProblems(t *testing.T) {
	dir := t.TempDir()
	m, err := Write(context.Background(), dir, udb, sample(t), Options{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "JM1.html"), []byte("<div>changed</div>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "extra.html"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	files := []string{ManifestFile, "JM1.html", "extra.html"}
	for _, f := range m.Files {
		if f.Path != "JD1.html" && f.Path != "JM1.html" {
			files = append(files, f.Path)
		}
	}
	bundle := filepath.Join(t.TempDir(), "udb.tar.xz")
	if err := archive.Create(dir, bundle, "udb", files); err != nil {
		t.Fatalf("archive.Create() error = %v", err)
	}

	_, problems, err := VerifyArchive(bundle)
	if err != nil {
		t.Fatalf("VerifyArchive() error = %v", err)
	}
	want := []Problem{
		{"JD1.html", "missing"},
		{"JM1.html", "size mismatch"},
		{"extra.html", "not in manifest"},
	}
	if !slices.Equal(problems, want) {
		t.Errorf("problems = %v, want %v", problems, want)
	}
}

func TestVerifyArchiveWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "RM1.html"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	bundle := filepath.Join(dir, "b.tar.gz")
	if err := archive.Create(dir, bundle, "b", []string{"RM1.html"}); err != nil {
		t.Fatalf("archive.Create() error = %v", err)
	}
	if _, _, err := VerifyArchive(bundle); !errors.Is(err, texterrors.ErrNotFound) {
		t.Errorf("VerifyArchive() error = %v, want ErrNotFound", err)
	}
}

func TestWriteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Write(ctx, t.TempDir(), udb, sample(t), Options{}); err == nil {
		t.Error("Write() should fail on a cancelled context")
	}
}

func TestBuildInfoUnknownBook(t *testing.T) {
	res := &generator.Result{Chapters: []*generator.ChapterDocument{
		{ID: "XX1", BookCode: "XX", Chapter: 1, Title: "Extra Writings 1"},
		{ID: "ZZ1", BookCode: "ZZ", Chapter: 1, Title: ""},
	}}
	info := BuildInfo(generator.TextInfo{ID: "t"}, res, books.NewTable(nil))
	if !slices.Equal(info.DivisionNames, []string{"Extra Writings", "ZZ"}) {
		t.Errorf("divisionNames = %v", info.DivisionNames)
	}
	if info.Dir != "ltr" {
		t.Errorf("Dir = %q", info.Dir)
	}
}

func TestWriteRejectsUnsafeChapterID(t *testing.T) {
	res := &generator.Result{Chapters: []*generator.ChapterDocument{
		{ID: "../evil1", BookCode: "../evil", Chapter: 1, HTML: "<div/>"},
	}}
	_, err := Write(context.Background(), t.TempDir(), udb, res, Options{})
	var verr *texterrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Write() error = %v, want ValidationError", err)
	}
}
