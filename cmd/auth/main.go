package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

// auth manages learner API keys. A key's ID is the learner ID under which
// practice history is recorded.
//
// Usage:
//
//	auth create  --name "ana" [--rate-limit 60] [--expires-in 720h]
//	auth revoke  --id <key-id> | --key <raw-key>
//	auth list
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

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}
	validator := apikey.NewValidator(db)

	switch args[0] {
	case "create":
		err = cmdCreate(ctx, validator, args[1:])
	case "revoke":
		err = cmdRevoke(ctx, validator, args[1:])
	case "list":
		err = cmdList(ctx, validator)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func cmdCreate(ctx context.Context, v *apikey.Validator, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "learner or client name")
	rateLimit := fs.Int("rate-limit", apikey.DefaultRateLimit, "requests per minute")
	expiresIn := fs.String("expires-in", "", "expiry duration, e.g. 720h (optional)")
	_ = fs.Parse(args)

	var expiresAt *time.Time
	if *expiresIn != "" {
		d, err := time.ParseDuration(*expiresIn)
		if err != nil {
			return fmt.Errorf("invalid --expires-in: %w", err)
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	raw, info, err := v.CreateKey(ctx, *name, *rateLimit, expiresAt)
	if err != nil {
		return err
	}

	fmt.Println("API key created. Store it securely, it cannot be retrieved again.")
	fmt.Println()
	fmt.Printf("  Key:        %s\n", raw)
	fmt.Printf("  Learner ID: %s\n", info.ID)
	fmt.Printf("  Name:       %s\n", info.Name)
	fmt.Printf("  Rate Limit: %d req/min\n", info.RateLimit)
	fmt.Printf("  Expires:    %s\n", formatExpiry(info.ExpiresAt))
	return nil
}

func cmdRevoke(ctx context.Context, v *apikey.Validator, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	id := fs.String("id", "", "key id to revoke")
	key := fs.String("key", "", "raw api key to revoke")
	_ = fs.Parse(args)

	var err error
	switch {
	case *id != "":
		err = v.RevokeByID(ctx, *id)
	case *key != "":
		err = v.RevokeKey(ctx, *key)
	default:
		return fmt.Errorf("--id or --key is required")
	}
	if err != nil {
		return err
	}
	fmt.Println("API key revoked.")
	return nil
}

func cmdList(ctx context.Context, v *apikey.Validator) error {
	keys, err := v.ListKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("No active API keys.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRATE LIMIT\tCREATED\tEXPIRES")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\t%d/min\t%s\t%s\n",
			k.ID, k.Name, k.RateLimit, k.CreatedAt.Format(time.RFC3339), formatExpiry(k.ExpiresAt))
	}
	return tw.Flush()
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  auth [-config path] create --name NAME [--rate-limit N] [--expires-in DURATION]
  auth [-config path] revoke --id KEY_ID | --key RAW_KEY
  auth [-config path] list`)
}
