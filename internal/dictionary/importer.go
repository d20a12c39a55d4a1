package dictionary

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BatchWriter persists parsed entries. *Store satisfies it.
type BatchWriter interface {
	InsertBatch(ctx context.Context, entries []Entry) (int, error)
}

// WordIndexer indexes headwords for prefix suggestions. *Suggester
// satisfies it.
type WordIndexer interface {
	Add(ctx context.Context, words ...string) error
}

// Report summarizes one import run.
type Report struct {
	Lines    int `json:"lines"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer streams a dictionary export into the store and the suggestion
// index in fixed-size batches.
type Importer struct {
	store     BatchWriter
	index     WordIndexer
	batchSize int
	// SkipHeader drops the first line of the input.
	SkipHeader bool
	logger     *slog.Logger
}

// NewImporter creates an Importer. index may be nil.
func NewImporter(store BatchWriter, index WordIndexer, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Importer{
		store:      store,
		index:      index,
		batchSize:  batchSize,
		SkipHeader: true,
		logger:     slog.Default().With("component", "dictionary-importer"),
	}
}

// Import reads r line by line. Input with a UTF-16 byte order mark is
// decoded as UTF-16; anything else is read as UTF-8. Unparseable lines are
// counted as skipped; store failures abort the run.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rep Report
	batch := make([]Entry, 0, im.batchSize)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if im.SkipHeader {
				continue
			}
		}
		rep.Lines++

		e, err := ParseLine(line)
		switch {
		case errors.Is(err, ErrEmptyLine):
			continue
		case err != nil:
			rep.Skipped++
			continue
		}

		batch = append(batch, e)
		if len(batch) >= im.batchSize {
			if err := im.flush(ctx, batch, &rep); err != nil {
				return rep, err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return rep, fmt.Errorf("reading dictionary: %w", err)
	}
	if len(batch) > 0 {
		if err := im.flush(ctx, batch, &rep); err != nil {
			return rep, err
		}
	}
	im.logger.Info("dictionary import finished",
		"lines", rep.Lines,
		"imported", rep.Imported,
		"skipped", rep.Skipped,
	)
	return rep, nil
}

func (im *Importer) flush(ctx context.Context, batch []Entry, rep *Report) error {
	n, err := im.store.InsertBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("writing batch after %d entries: %w", rep.Imported, err)
	}
	rep.Imported += n
	rep.Skipped += len(batch) - n

	if im.index != nil {
		words := make([]string, len(batch))
		for i, e := range batch {
			words[i] = e.Word
		}
		if err := im.index.Add(ctx, words...); err != nil {
			return err
		}
	}
	im.logger.Debug("batch imported", "entries", len(batch), "total", rep.Imported)
	return nil
}
