package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type quadRepository struct {
	q querier
}

// NewQuadRepository создаёт PostgreSQL-реализацию QuadRepository вне транзакции.
func NewQuadRepository(store *Store) domain.QuadRepository {
	return &quadRepository{q: store.DB()}
}

func (r *quadRepository) Insert(ctx context.Context, quad domain.Quad) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	if quad.ID == 0 {
		var id int64
		err := r.q.QueryRowContext(ctx, `
			INSERT INTO quad (type, daily_rate, plate, description)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, string(quad.Type), quad.DailyRate, quad.Plate, quad.Description).Scan(&id)
		if err != nil {
			return -1, classify(err, "insert quad")
		}
		return id, nil
	}

	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO quad (id, type, daily_rate, plate, description)
		VALUES ($1, $2, $3, $4, $5)
	`, quad.ID, string(quad.Type), quad.DailyRate, quad.Plate, quad.Description); err != nil {
		return -1, classify(err, "insert quad with id")
	}
	if err := bumpSequence(ctx, r.q, "quad", quad.ID); err != nil {
		return -1, err
	}
	return quad.ID, nil
}

func (r *quadRepository) Update(ctx context.Context, quad domain.Quad) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE quad
		SET type = $2, daily_rate = $3, plate = $4, description = $5
		WHERE id = $1
	`, quad.ID, string(quad.Type), quad.DailyRate, quad.Plate, quad.Description)
	if err != nil {
		return 0, classify(err, "update quad")
	}
	return rowsAffected(res, "update quad")
}

// Delete удаляет квадроцикл; связи удаляются через ON DELETE CASCADE.
func (r *quadRepository) Delete(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM quad WHERE id = $1`, id)
	if err != nil {
		return 0, classify(err, "delete quad")
	}
	return rowsAffected(res, "delete quad")
}

func (r *quadRepository) GetByID(ctx context.Context, id int64) (domain.Quad, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	quad, err := scanQuad(r.q.QueryRowContext(ctx, `
		SELECT id, type, daily_rate, plate, description
		FROM quad
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quad{}, errors.Wrapf(domain.ErrNotFound, "quad %d", id)
	}
	if err != nil {
		return domain.Quad{}, classify(err, "get quad")
	}
	return quad, nil
}

func (r *quadRepository) GetAll(ctx context.Context) ([]domain.Quad, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, type, daily_rate, plate, description
		FROM quad
		ORDER BY plate COLLATE "C", id
	`)
	if err != nil {
		return nil, classify(err, "list quads")
	}
	defer rows.Close()

	result := make([]domain.Quad, 0)
	for rows.Next() {
		quad, err := scanQuad(rows)
		if err != nil {
			return nil, classify(err, "scan quad")
		}
		result = append(result, quad)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate quads")
	}
	return result, nil
}

func (r *quadRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `DELETE FROM quad`)
	return classify(err, "delete all quads")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuad(row rowScanner) (domain.Quad, error) {
	var (
		quad     domain.Quad
		quadType string
	)
	if err := row.Scan(&quad.ID, &quadType, &quad.DailyRate, &quad.Plate, &quad.Description); err != nil {
		return domain.Quad{}, err
	}
	quad.Type = domain.QuadType(quadType)
	return quad, nil
}

var _ domain.QuadRepository = (*quadRepository)(nil)
