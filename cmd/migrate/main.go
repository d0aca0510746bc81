package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "QUAD_POSTGRES_DSN"
)

func main() {
	if err := run(os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fail("%v", err)
	}
}

func run(args []string, getenv func(string) string, out io.Writer) error {
	var (
		direction string
		steps     int
		dsn       string
	)

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&direction, "direction", "up", "migration direction: up|down|status")
	fs.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	switch direction {
	case "up", "down", "status":
	default:
		return errors.Newf("unsupported direction: %s (use up|down|status)", direction)
	}

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}
	if dsn == "" {
		return errors.New(envPostgresDSN + " (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return errors.Wrap(err, "open postgres store")
	}
	defer store.Close()

	switch direction {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			return errors.Wrap(err, "migrate up failed")
		}
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			return errors.Wrap(err, "migrate down failed")
		}
	}

	state, err := store.MigrationStatus(ctx)
	if err != nil {
		return errors.Wrap(err, "migration status failed")
	}
	_, _ = fmt.Fprintf(out, "migrate %s ok: version=%d applied=%d pending=%d\n",
		direction, state.Version, state.Applied, state.Pending())
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
