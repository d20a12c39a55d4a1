package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

// Store reads and writes the dictionary_entries table.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "dictionary-store"),
	}
}

// Lookup returns the display form of word. The query is trimmed and
// lower-cased; an unknown word returns ErrWordNotFound.
func (s *Store) Lookup(ctx context.Context, word string) (*Entry, error) {
	key := NormalizeWord(word)
	if key == "" {
		return nil, apperrors.Invalid("word is required")
	}

	var e Entry
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT word, phonetic, definition FROM dictionary_entries WHERE word = $1`,
		key,
	).Scan(&e.Word, &e.Phonetic, &e.Definition)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrWordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("querying dictionary: %w", err)
	}
	out := e.Display()
	return &out, nil
}

// InsertBatch writes entries in one transaction and returns how many rows
// were new. Existing headwords keep their first definition.
func (s *Store) InsertBatch(ctx context.Context, entries []Entry) (int, error) {
	inserted := 0
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO dictionary_entries (word, phonetic, definition)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (word) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			res, err := stmt.ExecContext(ctx, e.Word, e.Phonetic, e.Definition)
			if err != nil {
				return fmt.Errorf("inserting %q: %w", e.Word, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Words calls fn with every headword in byte order, in pages of pageSize.
func (s *Store) Words(ctx context.Context, pageSize int, fn func(words []string) error) error {
	if pageSize <= 0 {
		pageSize = 1000
	}
	after := ""
	for {
		rows, err := s.db.DB.QueryContext(ctx,
			`SELECT word FROM dictionary_entries WHERE word COLLATE "C" > $1 ORDER BY word COLLATE "C" LIMIT $2`,
			after, pageSize,
		)
		if err != nil {
			return fmt.Errorf("listing words: %w", err)
		}
		page := make([]string, 0, pageSize)
		for rows.Next() {
			var w string
			if err := rows.Scan(&w); err != nil {
				rows.Close()
				return fmt.Errorf("scanning word: %w", err)
			}
			page = append(page, w)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("listing words: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < pageSize {
			return nil
		}
		after = page[len(page)-1]
	}
}

// Count returns the number of headwords.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM dictionary_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting dictionary entries: %w", err)
	}
	return n, nil
}
