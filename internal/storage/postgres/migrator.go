package postgres

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Ключ advisory lock, под которым миграции выполняются не более чем одним процессом.
const rentalMigrationLock = int64(0x51AD_2024)

const schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    BIGINT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

var migrationName = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

type direction string

const (
	directionUp   direction = "up"
	directionDown direction = "down"
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

func (m migration) label() string {
	return strconv.FormatInt(m.Version, 10) + "_" + m.Name
}

func (m migration) script(dir direction) string {
	if dir == directionDown {
		return m.DownSQL
	}
	return m.UpSQL
}

// MigrationState описывает состояние схемы для команды status.
type MigrationState struct {
	Version   int64
	Applied   int
	Available int
}

// Pending возвращает число ещё не применённых миграций.
func (m MigrationState) Pending() int {
	return max(m.Available-m.Applied, 0)
}

// MigrateUp применяет steps миграций вперёд; 0 означает «все».
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.migrate(ctx, directionUp, steps)
}

// MigrateDown откатывает steps последних миграций, минимум одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	return s.migrate(ctx, directionDown, max(steps, 1))
}

func (s *Store) MigrationStatus(ctx context.Context) (MigrationState, error) {
	if s == nil || s.db == nil {
		return MigrationState{}, errNotInitialized
	}
	available, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		return MigrationState{}, err
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return MigrationState{}, errors.Wrap(err, "ensure schema_migrations")
	}
	state := MigrationState{Available: len(available)}
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0), COUNT(*) FROM schema_migrations`).
		Scan(&state.Version, &state.Applied)
	if err != nil {
		return MigrationState{}, errors.Wrap(err, "read migration status")
	}
	return state, nil
}

func (s *Store) migrate(ctx context.Context, dir direction, steps int) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	available, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire migration connection")
	}
	defer conn.Close()

	unlock, err := lockMigrations(ctx, conn)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := conn.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return errors.Wrap(err, "ensure schema_migrations")
	}
	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	todo, err := planMigrations(available, applied, dir, steps)
	if err != nil {
		return err
	}
	for _, m := range todo {
		if err := runMigration(ctx, conn, m, dir); err != nil {
			return err
		}
	}
	return nil
}

func lockMigrations(ctx context.Context, conn *sql.Conn) (func(), error) {
	lockCtx, cancel := withOpTimeout(ctx)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock($1)`, rentalMigrationLock); err != nil {
		return nil, errors.Wrap(err, "acquire migration lock")
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, rentalMigrationLock)
	}, nil
}

// planMigrations выбирает миграции для применения: неприменённые по возрастанию версии
// для up, последние применённые по убыванию для down. steps<=0 для up означает «все».
func planMigrations(available []migration, applied []int64, dir direction, steps int) ([]migration, error) {
	done := make(map[int64]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	var plan []migration
	switch dir {
	case directionUp:
		for _, m := range available {
			if _, ok := done[m.Version]; !ok {
				plan = append(plan, m)
			}
		}
	case directionDown:
		byVersion := make(map[int64]migration, len(available))
		for _, m := range available {
			byVersion[m.Version] = m
		}
		desc := append([]int64(nil), applied...)
		sort.Slice(desc, func(i, j int) bool { return desc[i] > desc[j] })
		for _, v := range desc {
			m, ok := byVersion[v]
			if !ok {
				return nil, errors.Newf("cannot roll back unknown migration version %d", v)
			}
			plan = append(plan, m)
			if len(plan) == steps {
				break
			}
		}
	default:
		return nil, errors.Newf("unsupported migration direction: %s", dir)
	}

	if steps > 0 && len(plan) > steps {
		plan = plan[:steps]
	}
	return plan, nil
}

// runMigration выполняет скрипт и запись в schema_migrations в одной транзакции.
func runMigration(ctx context.Context, conn *sql.Conn, m migration, dir direction) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "begin %s migration %s", dir, m.label())
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.script(dir)); err != nil {
		return errors.Wrapf(err, "run %s migration %s", dir, m.label())
	}

	if dir == directionUp {
		_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
	}
	if err != nil {
		return errors.Wrapf(err, "record %s migration %s", dir, m.label())
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s migration %s", dir, m.label())
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) ([]int64, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan applied migration")
		}
		versions = append(versions, v)
	}
	return versions, errors.Wrap(rows.Err(), "iterate applied migrations")
}

// loadMigrationsFromFS собирает пары NNNN_name.up.sql / NNNN_name.down.sql из sql/migrations.
func loadMigrationsFromFS(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, "sql/migrations/*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	if len(files) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*migration)
	for _, file := range files {
		base := path.Base(file)
		parts := migrationName.FindStringSubmatch(base)
		if parts == nil {
			return nil, errors.Newf("invalid migration file name: %s", base)
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse migration version of %s", base)
		}

		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", file)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, errors.Newf("migration file is empty: %s", base)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		}
		if m.Name != parts[2] {
			return nil, errors.Newf("migration name mismatch for version %d: %s vs %s", version, m.Name, parts[2])
		}

		target := &m.UpSQL
		if direction(parts[3]) == directionDown {
			target = &m.DownSQL
		}
		if *target != "" {
			return nil, errors.Newf("duplicate %s migration for version %d", parts[3], version)
		}
		*target = body
	}

	result := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, errors.Newf("migration %s must have both up and down files", m.label())
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
