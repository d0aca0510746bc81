package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

const linkColumns = `id, reserva_id, quad_id, helmet_count`

type linkRepository struct {
	q querier
}

// NewLinkRepository создаёт PostgreSQL-реализацию LinkRepository вне транзакции.
func NewLinkRepository(store *Store) domain.LinkRepository {
	return &linkRepository{q: store.DB()}
}

// Insert полагается на внешние ключи: отсутствующий родитель даёт ErrParentMissing.
func (r *linkRepository) Insert(ctx context.Context, link domain.Link) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	if link.ID == 0 {
		var id int64
		err := r.q.QueryRowContext(ctx, `
			INSERT INTO reserva_quad (reserva_id, quad_id, helmet_count)
			VALUES ($1, $2, $3)
			RETURNING id
		`, link.ReservationID, link.QuadID, link.HelmetCount).Scan(&id)
		if err != nil {
			return -1, classify(err, "insert link")
		}
		return id, nil
	}

	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO reserva_quad (id, reserva_id, quad_id, helmet_count)
		VALUES ($1, $2, $3, $4)
	`, link.ID, link.ReservationID, link.QuadID, link.HelmetCount); err != nil {
		return -1, classify(err, "insert link with id")
	}
	if err := bumpSequence(ctx, r.q, "reserva_quad", link.ID); err != nil {
		return -1, err
	}
	return link.ID, nil
}

func (r *linkRepository) Update(ctx context.Context, link domain.Link) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `
		UPDATE reserva_quad
		SET reserva_id = $2, quad_id = $3, helmet_count = $4
		WHERE id = $1
	`, link.ID, link.ReservationID, link.QuadID, link.HelmetCount)
	if err != nil {
		return 0, classify(err, "update link")
	}
	return rowsAffected(res, "update link")
}

func (r *linkRepository) Delete(ctx context.Context, id int64) (int64, error) {
	return r.exec(ctx, "delete link", `DELETE FROM reserva_quad WHERE id = $1`, id)
}

func (r *linkRepository) DeleteAll(ctx context.Context) error {
	_, err := r.exec(ctx, "delete all links", `DELETE FROM reserva_quad`)
	return err
}

func (r *linkRepository) GetByID(ctx context.Context, id int64) (domain.Link, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var link domain.Link
	err := r.q.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM reserva_quad WHERE id = $1`, id).
		Scan(&link.ID, &link.ReservationID, &link.QuadID, &link.HelmetCount)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Link{}, errors.Wrapf(domain.ErrNotFound, "link %d", id)
	}
	if err != nil {
		return domain.Link{}, classify(err, "get link")
	}
	return link, nil
}

func (r *linkRepository) GetByReservation(ctx context.Context, reservationID int64) ([]domain.Link, error) {
	return r.list(ctx, "list links by reservation",
		`SELECT `+linkColumns+` FROM reserva_quad WHERE reserva_id = $1 ORDER BY id`, reservationID)
}

func (r *linkRepository) GetByQuad(ctx context.Context, quadID int64) ([]domain.Link, error) {
	return r.list(ctx, "list links by quad",
		`SELECT `+linkColumns+` FROM reserva_quad WHERE quad_id = $1 ORDER BY id`, quadID)
}

func (r *linkRepository) GetByReservationAndQuad(ctx context.Context, reservationID, quadID int64) (domain.Link, error) {
	links, err := r.list(ctx, "get link by pair",
		`SELECT `+linkColumns+` FROM reserva_quad WHERE reserva_id = $1 AND quad_id = $2 ORDER BY id LIMIT 1`,
		reservationID, quadID)
	if err != nil {
		return domain.Link{}, err
	}
	if len(links) == 0 {
		return domain.Link{}, errors.Wrapf(domain.ErrNotFound, "link reservation=%d quad=%d", reservationID, quadID)
	}
	return links[0], nil
}

func (r *linkRepository) DeleteByReservation(ctx context.Context, reservationID int64) (int64, error) {
	return r.exec(ctx, "delete links by reservation", `DELETE FROM reserva_quad WHERE reserva_id = $1`, reservationID)
}

func (r *linkRepository) DeleteByQuad(ctx context.Context, quadID int64) (int64, error) {
	return r.exec(ctx, "delete links by quad", `DELETE FROM reserva_quad WHERE quad_id = $1`, quadID)
}

func (r *linkRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err, op)
	}
	return rowsAffected(res, op)
}

func (r *linkRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Link, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, op)
	}
	defer rows.Close()

	result := make([]domain.Link, 0)
	for rows.Next() {
		var link domain.Link
		if err := rows.Scan(&link.ID, &link.ReservationID, &link.QuadID, &link.HelmetCount); err != nil {
			return nil, classify(err, op)
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, op)
	}
	return result, nil
}

var _ domain.LinkRepository = (*linkRepository)(nil)
