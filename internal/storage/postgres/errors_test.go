package postgres

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique", err: &pgconn.PgError{Code: pgUniqueViolation}, want: domain.ErrConflict},
		{name: "foreign key", err: &pgconn.PgError{Code: pgForeignKeyViolation}, want: domain.ErrParentMissing},
		{name: "check", err: &pgconn.PgError{Code: pgCheckViolation}, want: domain.ErrValidation},
		{name: "deadline", err: context.DeadlineExceeded, want: domain.ErrStorageTimeout},
		{name: "other", err: errors.New("connection reset"), want: domain.ErrStorageFailure},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, errors.Is(classify(tc.err, "op"), tc.want))
		})
	}

	assert.NoError(t, classify(nil, "op"))
}
