// Command textgen generates the reader's chapter HTML and search indexes
// from a directory of USFM book files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/textgen/core/books"
	"github.com/FocuswithJustin/textgen/core/cas"
	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/core/sqlite"
	"github.com/FocuswithJustin/textgen/core/usfm"
	"github.com/FocuswithJustin/textgen/internal/archive"
	"github.com/FocuswithJustin/textgen/internal/config"
	"github.com/FocuswithJustin/textgen/internal/logging"
	"github.com/FocuswithJustin/textgen/internal/output"
	"github.com/FocuswithJustin/textgen/internal/source"
	"github.com/FocuswithJustin/textgen/internal/store"
	"github.com/FocuswithJustin/textgen/internal/textinfo"
)

const version = "0.4.0"

// CLI defines the command-line interface for textgen.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`

	Generate GenerateCmd `cmd:"" help:"Generate chapter HTML and indexes from a USFM directory"`
	Tokenize TokenizeCmd `cmd:"" help:"Print the tags of a USFM file"`
	Books    BooksCmd    `cmd:"" help:"List the book catalog"`
	Archive  ArchiveCmd  `cmd:"" help:"List or verify a generated archive"`
	Query    QueryCmd    `cmd:"" help:"Query a SQLite export"`
	Blob     BlobCmd     `cmd:"" help:"Print a file from a content-addressed store"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// GenerateCmd runs a full generation.
type GenerateCmd struct {
	Input   string `arg:"" help:"Directory containing USFM files" type:"existingdir"`
	Out     string `short:"o" help:"Output directory" type:"path"`
	Config  string `short:"c" help:"Config file (default: <input>/textgen.yaml)" type:"path"`
	TextID  string `name:"text-id" help:"Override the text id"`
	Lang    string `help:"Override the language tag"`
	SQLite  string `name:"sqlite" help:"Also export to this SQLite database" type:"path"`
	Archive string `help:"Also bundle the output into this .tar.xz or .tar.gz" type:"path"`
	CAS     string `name:"cas" help:"Also store every file in this content-addressed store" type:"path"`
	NoWords bool   `name:"no-words" help:"Skip the word index"`
}

// merge layers the command-line flags over the file configuration.
func (c *GenerateCmd) merge(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.InputDir, c.Input)
	set(&cfg.OutputDir, c.Out)
	set(&cfg.TextID, c.TextID)
	set(&cfg.Lang, c.Lang)
	set(&cfg.SQLite, c.SQLite)
	set(&cfg.Archive, c.Archive)
	set(&cfg.LogLevel, CLI.LogLevel)
	set(&cfg.LogFormat, CLI.LogFormat)
	if c.CAS != "" {
		cfg.CAS = true
	}
	if c.NoWords {
		cfg.Words = false
	}
}

func (c *GenerateCmd) Run() error {
	start := time.Now()

	cfg, err := config.LoadFor(c.Config, c.Input)
	if err != nil {
		return err
	}
	c.merge(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.InitLogger(cfg.Logging())
	tags, err := cfg.TagTable()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	info, err := loadInfo(cfg)
	if err != nil {
		return err
	}

	catalog := books.Default()
	sources, err := source.Scan(ctx, cfg.InputDir, catalog)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		logging.WarnContext(ctx, "no USFM files found", "dir", cfg.InputDir)
	}
	about, err := source.About(cfg.InputDir)
	if err != nil {
		return err
	}

	res, err := generator.Generate(sources, info, catalog, generator.Options{
		Tags:             tags,
		AboutHTML:        about,
		Logger:           logging.LoggerFromContext(ctx),
		DisableWordIndex: !cfg.Words,
	})
	if err != nil {
		return err
	}
	logBooks(res)
	logging.UnrecognizedTags(info.ID, res.Unrecognized)

	opts := output.Options{
		Version:     version,
		RunID:       runID,
		SQLitePath:  cfg.SQLite,
		ArchivePath: cfg.Archive,
		Catalog:     catalog,
	}
	if cfg.CAS {
		opts.CASDir = c.CAS
		if opts.CASDir == "" {
			opts.CASDir = filepath.Join(cfg.OutputDir, ".cas")
		}
	}
	m, err := output.Write(ctx, cfg.OutputDir, info, res, opts)
	if err != nil {
		return err
	}
	logging.GenerationComplete(ctx, len(res.Chapters), len(res.Words), time.Since(start))

	fmt.Printf("Generated %s: %d chapters, %d files, %s in %s\n",
		info.ID, m.Chapters, len(m.Files), humanize.Bytes(uint64(m.TotalSize)), cfg.OutputDir)
	if len(res.Unrecognized) > 0 {
		fmt.Printf("Unrecognized tags: %v\n", res.Unrecognized)
	}
	return nil
}

// loadInfo reads the text info and applies the configured overrides. A
// directory without info.json or metadata.xml gets a minimal description
// named after the directory.
func loadInfo(cfg config.Config) (generator.TextInfo, error) {
	info, err := textinfo.Load(cfg.InputDir)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return info, err
		}
		logging.Warn("no info.json or metadata.xml, using defaults", "dir", cfg.InputDir)
	}
	if cfg.TextID != "" {
		info.ID = cfg.TextID
	}
	if cfg.Lang != "" && cfg.Lang != info.Lang {
		info.Lang = cfg.Lang
		info.Dir, info.LangName, info.LangNameEnglish = "", "", ""
	}
	abs, _ := filepath.Abs(cfg.InputDir)
	return textinfo.Normalize(info, filepath.Base(abs)), nil
}

func logBooks(res *generator.Result) {
	var (
		order  []string
		counts = make(map[string]int)
	)
	for _, doc := range res.Chapters {
		if counts[doc.BookCode] == 0 {
			order = append(order, doc.BookCode)
		}
		counts[doc.BookCode]++
	}
	for _, code := range order {
		logging.BookAssembled(code, counts[code])
	}
}

// TokenizeCmd prints the tags of each line of a USFM file.
type TokenizeCmd struct {
	File string `arg:"" help:"USFM file" type:"existingfile"`
	JSON bool   `help:"Print one JSON object per tag"`
}

type tokenRecord struct {
	Line   int    `json:"line"`
	Order  int    `json:"order"`
	Key    string `json:"key"`
	Number string `json:"number,omitempty"`
	Text   string `json:"text"`
}

func (c *TokenizeCmd) Run() error {
	lines, err := source.ReadLines(c.File)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for i, line := range lines {
		for tok := range usfm.Tokenize(line) {
			if c.JSON {
				rec := tokenRecord{Line: i + 1, Order: tok.Order, Key: tok.Key, Number: tok.Number, Text: tok.Text}
				if err := enc.Encode(rec); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("%d:%d\t%s\n", i+1, tok.Order, tok)
		}
	}
	return nil
}

// BooksCmd lists the default book catalog.
type BooksCmd struct {
	JSON bool `help:"Print the catalog as JSON"`
}

func (c *BooksCmd) Run() error {
	catalog := books.Default()
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog.Books())
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tUSFM\tOSIS\tNAME\tCHAPTERS\tTESTAMENT")
	for _, b := range catalog.Books() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", b.Code, b.USFM, b.OSIS, b.DisplayName(), b.Chapters, b.Testament())
	}
	return tw.Flush()
}

// ArchiveCmd lists a generated archive and optionally checks it against
// its manifest.
type ArchiveCmd struct {
	Path   string `arg:"" help:"Archive path (.tar.xz or .tar.gz)" type:"existingfile"`
	Verify bool   `help:"Check every file against the bundled manifest.json"`
}

func (c *ArchiveCmd) Run() error {
	if c.Verify {
		return c.verify()
	}

	entries, err := archive.Contents(c.Path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(c.Path)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s, %d files)\n", c.Path, humanize.Bytes(uint64(fi.Size())), len(entries))
	for _, e := range entries {
		fmt.Printf("  %-24s %8s  %s\n", e.Name, humanize.Bytes(uint64(e.Digest.Size)), e.Digest.BLAKE3[:16])
	}
	return nil
}

func (c *ArchiveCmd) verify() error {
	m, problems, err := output.VerifyArchive(c.Path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: text %s, run %s, %d chapters, %d files\n", c.Path, m.TextID, m.RunID, m.Chapters, len(m.Files))
	for _, p := range problems {
		fmt.Printf("  %s: %s\n", p.Path, p.Reason)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problems found", len(problems))
	}
	fmt.Println("OK")
	return nil
}

// QueryCmd reads a SQLite export written by generate --sqlite.
type QueryCmd struct {
	DB      string `arg:"" help:"SQLite database" type:"existingfile"`
	Chapter string `help:"Print the HTML of this chapter"`
	Word    string `help:"List the verses containing this word"`
}

func (c *QueryCmd) Run() error {
	db, err := store.OpenReadOnly(c.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()

	switch {
	case c.Chapter != "":
		doc, err := db.Chapter(ctx, c.Chapter)
		if err != nil {
			return err
		}
		fmt.Printf("<!-- %s prev=%s next=%s -->\n%s\n", doc.Title, doc.PreviousID, doc.NextID, doc.HTML)
	case c.Word != "":
		verses, err := db.Verses(ctx, c.Word)
		if err != nil {
			return err
		}
		for _, v := range verses {
			fmt.Println(v)
		}
	default:
		chapters, words, err := db.Counts(ctx)
		if err != nil {
			return err
		}
		sections, err := db.Sections(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d chapters, %d word entries\n", chapters, words)
		if len(sections) > 0 {
			fmt.Printf("first %s, last %s\n", sections[0], sections[len(sections)-1])
		}
	}
	return nil
}

// BlobCmd prints a stored file by its SHA-256 or BLAKE3 hash, as listed
// in manifest.json.
type BlobCmd struct {
	Store string `arg:"" help:"Store directory" type:"existingdir"`
	Hash  string `arg:"" help:"SHA-256 or BLAKE3 hash"`
}

func (c *BlobCmd) Run() error {
	blobs, err := cas.NewStore(c.Store)
	if err != nil {
		return err
	}
	var data []byte
	if blobs.Has(c.Hash) {
		data, err = blobs.Get(c.Hash)
	} else {
		data, err = blobs.GetByBlake3(c.Hash)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c.Hash, err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("textgen version %s\n", version)
	fmt.Printf("sqlite driver: %s (%s, cgo=%t)\n", info.Package, info.DriverType, sqlite.IsCGO())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("textgen"),
		kong.Description("USFM to HTML chapter generator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	ctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
