package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/redis"
)

// dictionary loads and maintains the word list.
//
// Usage:
//
//	dictionary import --file words.csv [--keep-header]
//	dictionary reindex
//	dictionary lookup --word WORD
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}
	store := dictionary.NewStore(db)

	switch args[0] {
	case "import":
		err = cmdImport(ctx, cfg, store, args[1:])
	case "reindex":
		err = cmdReindex(ctx, cfg, store)
	case "lookup":
		err = cmdLookup(ctx, store, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("dictionary command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func cmdImport(ctx context.Context, cfg *config.Config, store *dictionary.Store, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	path := fs.String("file", "", "dictionary export (word [phonetic],definition per line)")
	keepHeader := fs.Bool("keep-header", false, "treat the first line as data")
	_ = fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("--file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *path, err)
	}
	defer f.Close()

	var index dictionary.WordIndexer
	if s, closeFn := suggester(cfg); s != nil {
		defer closeFn()
		index = s
	}

	im := dictionary.NewImporter(store, index, cfg.Dictionary.ImportBatchSize)
	im.SkipHeader = !*keepHeader

	start := time.Now()
	rep, err := im.Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d entries (%d lines, %d skipped) in %s\n",
		rep.Imported, rep.Lines, rep.Skipped, time.Since(start).Round(time.Millisecond))
	return nil
}

// cmdReindex rebuilds the suggestion index from the stored headwords.
func cmdReindex(ctx context.Context, cfg *config.Config, store *dictionary.Store) error {
	s, closeFn := suggester(cfg)
	if s == nil {
		return fmt.Errorf("redis is required to reindex")
	}
	defer closeFn()

	indexed := 0
	err := store.Words(ctx, cfg.Dictionary.ImportBatchSize, func(words []string) error {
		indexed += len(words)
		return s.Add(ctx, words...)
	})
	if err != nil {
		return err
	}
	size, err := s.Size(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d words, index holds %d\n", indexed, size)
	return nil
}

func cmdLookup(ctx context.Context, store *dictionary.Store, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	word := fs.String("word", "", "word to look up")
	_ = fs.Parse(args)

	e, err := store.Lookup(ctx, *word)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n\n%s\n", e.Word, e.Phonetic, e.Definition)
	return nil
}

func suggester(cfg *config.Config) (*dictionary.Suggester, func()) {
	rdb, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, suggestion index not updated", "error", err)
		return nil, func() {}
	}
	s := dictionary.NewSuggester(rdb, cfg.Dictionary.SuggestKey, cfg.Dictionary.SuggestLimit, cfg.Dictionary.MaxSuggestLimit)
	return s, func() { rdb.Close() }
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  dictionary [-config path] import --file PATH [--keep-header]
  dictionary [-config path] reindex
  dictionary [-config path] lookup --word WORD`)
}
