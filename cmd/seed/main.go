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
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/memory"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "QUAD_POSTGRES_DSN"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := run(os.Args[1:], os.Getenv, os.Stdout, time.Now()); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}

// run очищает хранилище и заполняет его демо-данными. Без DSN используется память.
func run(args []string, getenv func(string) string, out io.Writer, now time.Time) error {
	var dsn string

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+"; empty = in-memory)")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}
	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(getenv(envPostgresDSN))
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := openStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := rental.NewService(store, rental.WithLogger(log.WithField("component", "seed")))
	summary, err := svc.SeedDemo(ctx, now)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "seed ok: quads=%d reservations=%d links=%d\n",
		summary.Quads, summary.Reservations, summary.Links)
	return nil
}

func openStore(ctx context.Context, dsn string) (domain.Store, error) {
	if dsn == "" {
		return memory.NewStore(), nil
	}
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres store")
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "apply migrations")
	}
	return store, nil
}
