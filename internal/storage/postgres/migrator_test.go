package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsFromFS_Success(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_init.up.sql":   {Data: []byte("CREATE TABLE test_a (id INT);")},
		"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_a;")},
		"sql/migrations/0002_more.up.sql":   {Data: []byte("CREATE TABLE test_b (id INT);")},
		"sql/migrations/0002_more.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_b;")},
	}

	migrations, err := loadMigrationsFromFS(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, "init", migrations[0].Name)
	assert.Equal(t, int64(2), migrations[1].Version)
	assert.Equal(t, "more", migrations[1].Name)
}

func TestLoadMigrationsFromFS_Embedded(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(migrationsFS)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, "init_rental", migrations[0].Name)
	assert.Contains(t, migrations[0].UpSQL, "ON DELETE CASCADE")
	assert.Equal(t, "outbox", migrations[1].Name)
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		fsys    fstest.MapFS
		message string
	}{
		"missing down": {
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql": {Data: []byte("CREATE TABLE test_a (id INT);")},
			},
			message: "both up and down",
		},
		"invalid file name": {
			fsys: fstest.MapFS{
				"sql/migrations/not_a_migration.sql": {Data: []byte("SELECT 1;")},
			},
			message: "invalid migration file name",
		},
		"empty body": {
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("   \n")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE IF EXISTS test;")},
			},
			message: "empty",
		},
		"name mismatch": {
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			message: "name mismatch",
		},
		"no files": {
			fsys:    fstest.MapFS{},
			message: "no migration files",
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := loadMigrationsFromFS(tc.fsys)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestMigrationState_Pending(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, MigrationState{Applied: 1, Available: 2}.Pending())
	assert.Equal(t, 0, MigrationState{Applied: 3, Available: 2}.Pending())
}

func TestPlanMigrations(t *testing.T) {
	t.Parallel()

	available := []migration{
		{Version: 1, Name: "init"},
		{Version: 2, Name: "outbox"},
		{Version: 3, Name: "indexes"},
	}
	versions := func(ms []migration) []int64 {
		out := make([]int64, 0, len(ms))
		for _, m := range ms {
			out = append(out, m.Version)
		}
		return out
	}

	cases := map[string]struct {
		applied []int64
		dir     direction
		steps   int
		want    []int64
	}{
		"up all":          {applied: nil, dir: directionUp, steps: 0, want: []int64{1, 2, 3}},
		"up skips done":   {applied: []int64{1}, dir: directionUp, steps: 0, want: []int64{2, 3}},
		"up limited":      {applied: nil, dir: directionUp, steps: 1, want: []int64{1}},
		"up nothing left": {applied: []int64{1, 2, 3}, dir: directionUp, steps: 0, want: []int64{}},
		"down newest":     {applied: []int64{1, 2, 3}, dir: directionDown, steps: 1, want: []int64{3}},
		"down two":        {applied: []int64{2, 1}, dir: directionDown, steps: 2, want: []int64{2, 1}},
		"down past start": {applied: []int64{1}, dir: directionDown, steps: 5, want: []int64{1}},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			plan, err := planMigrations(available, tc.applied, tc.dir, tc.steps)
			require.NoError(t, err)
			assert.Equal(t, tc.want, versions(plan))
		})
	}
}

func TestPlanMigrations_Errors(t *testing.T) {
	t.Parallel()

	_, err := planMigrations([]migration{{Version: 1, Name: "init"}}, []int64{7}, directionDown, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration version 7")

	_, err = planMigrations(nil, nil, direction("sideways"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration direction")
}
