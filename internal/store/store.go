// Package store exports generated chapters and search indexes to a SQLite
// database for readers that query instead of loading JSON.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"

	"github.com/FocuswithJustin/textgen/core/errors"
	"github.com/FocuswithJustin/textgen/core/generator"
	"github.com/FocuswithJustin/textgen/core/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS meta (
		id TEXT PRIMARY KEY,
		abbr TEXT,
		name TEXT,
		lang TEXT,
		dir TEXT,
		generator TEXT
	);
	CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		book TEXT NOT NULL,
		chapter INTEGER NOT NULL,
		title TEXT,
		prev_id TEXT,
		next_id TEXT,
		html TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS words (
		word TEXT NOT NULL,
		verse_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		PRIMARY KEY (word, seq)
	);
	CREATE TABLE IF NOT EXISTS lemmas (
		lemma TEXT NOT NULL,
		verse_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		PRIMARY KEY (lemma, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_chapters_book ON chapters(book, chapter);
`

// Store is an open export database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing export for queries.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("database", path)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the database contents with one generation result.
func (s *Store) Save(ctx context.Context, info generator.TextInfo, res *generator.Result) error {
	return sqlite.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range []string{"meta", "chapters", "words", "lemmas"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO meta (id, abbr, name, lang, dir, generator) VALUES (?, ?, ?, ?, ?, ?)",
			info.ID, info.Abbr, info.Name, info.Lang, info.Direction(), info.Generator); err != nil {
			return fmt.Errorf("failed to insert meta: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO chapters (id, seq, book, chapter, title, prev_id, next_id, html) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare chapter insert: %w", err)
		}
		defer stmt.Close()
		for i, doc := range res.Chapters {
			if _, err := stmt.ExecContext(ctx, doc.ID, i, doc.BookCode, doc.Chapter, doc.Title,
				nullable(doc.PreviousID), nullable(doc.NextID), doc.HTML); err != nil {
				return fmt.Errorf("failed to insert chapter %s: %w", doc.ID, err)
			}
		}

		if err := insertIndex(ctx, tx, "words", "word", res.Words); err != nil {
			return err
		}
		return insertIndex(ctx, tx, "lemmas", "lemma", res.Lemmas)
	})
}

func insertIndex(ctx context.Context, tx *sql.Tx, table, column string, index map[string][]string) error {
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s, verse_id, seq) VALUES (?, ?, ?)", table, column))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for seq, verseID := range index[k] {
			if _, err := stmt.ExecContext(ctx, k, verseID, seq); err != nil {
				return fmt.Errorf("failed to insert %s %q: %w", column, k, err)
			}
		}
	}
	return nil
}

func nullable(l generator.Link) sql.NullString {
	return sql.NullString{String: string(l), Valid: l != ""}
}

// Chapter loads one chapter by id.
func (s *Store) Chapter(ctx context.Context, id string) (*generator.ChapterDocument, error) {
	var (
		doc        generator.ChapterDocument
		title      sql.NullString
		prev, next sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, book, chapter, title, prev_id, next_id, html FROM chapters WHERE id = ?", id).
		Scan(&doc.ID, &doc.BookCode, &doc.Chapter, &title, &prev, &next, &doc.HTML)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("chapter", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter %s: %w", id, err)
	}
	doc.Title = title.String
	doc.PreviousID = generator.Link(prev.String)
	doc.NextID = generator.Link(next.String)
	return &doc, nil
}

// Sections returns all chapter ids in reading order.
func (s *Store) Sections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM chapters ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Verses returns the verse ids recorded for word, in document order.
func (s *Store) Verses(ctx context.Context, word string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT verse_id FROM words WHERE word = ? ORDER BY seq", word)
	if err != nil {
		return nil, fmt.Errorf("failed to query word %q: %w", word, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Counts reports the number of chapters and word rows stored.
func (s *Store) Counts(ctx context.Context) (chapters, words int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chapters").Scan(&chapters); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM words").Scan(&words); err != nil {
		return 0, 0, err
	}
	return chapters, words, nil
}
