package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type reservationRepository struct {
	q querier
}

// NewReservationRepository создаёт PostgreSQL-реализацию ReservationRepository вне транзакции.
func NewReservationRepository(store *Store) domain.ReservationRepository {
	return &reservationRepository{q: store.DB()}
}

// Время хранится в epoch-миллисекундах; 0 означает «не задано».
func (r *reservationRepository) Insert(ctx context.Context, res domain.Reservation) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	pickup, ret := domain.ToMillis(res.PickupTime), domain.ToMillis(res.ReturnTime)
	if res.ID == 0 {
		var id int64
		err := r.q.QueryRowContext(ctx, `
			INSERT INTO reserva (pickup_time, return_time, total_price, phone, customer_name)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, pickup, ret, res.TotalPrice, res.Phone, res.CustomerName).Scan(&id)
		if err != nil {
			return -1, classify(err, "insert reservation")
		}
		return id, nil
	}

	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO reserva (id, pickup_time, return_time, total_price, phone, customer_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, res.ID, pickup, ret, res.TotalPrice, res.Phone, res.CustomerName); err != nil {
		return -1, classify(err, "insert reservation with id")
	}
	if err := bumpSequence(ctx, r.q, "reserva", res.ID); err != nil {
		return -1, err
	}
	return res.ID, nil
}

func (r *reservationRepository) Update(ctx context.Context, res domain.Reservation) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	result, err := r.q.ExecContext(ctx, `
		UPDATE reserva
		SET pickup_time = $2, return_time = $3, total_price = $4, phone = $5, customer_name = $6
		WHERE id = $1
	`, res.ID, domain.ToMillis(res.PickupTime), domain.ToMillis(res.ReturnTime), res.TotalPrice, res.Phone, res.CustomerName)
	if err != nil {
		return 0, classify(err, "update reservation")
	}
	return rowsAffected(result, "update reservation")
}

func (r *reservationRepository) Delete(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	result, err := r.q.ExecContext(ctx, `DELETE FROM reserva WHERE id = $1`, id)
	if err != nil {
		return 0, classify(err, "delete reservation")
	}
	return rowsAffected(result, "delete reservation")
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (domain.Reservation, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	res, err := scanReservation(r.q.QueryRowContext(ctx, `
		SELECT id, pickup_time, return_time, total_price, phone, customer_name
		FROM reserva
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, errors.Wrapf(domain.ErrNotFound, "reservation %d", id)
	}
	if err != nil {
		return domain.Reservation{}, classify(err, "get reservation")
	}
	return res, nil
}

func (r *reservationRepository) GetAll(ctx context.Context) ([]domain.Reservation, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, pickup_time, return_time, total_price, phone, customer_name
		FROM reserva
		ORDER BY pickup_time, id
	`)
	if err != nil {
		return nil, classify(err, "list reservations")
	}
	defer rows.Close()

	result := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, classify(err, "scan reservation")
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "iterate reservations")
	}
	return result, nil
}

func (r *reservationRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `DELETE FROM reserva`)
	return classify(err, "delete all reservations")
}

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var (
		res         domain.Reservation
		pickup, ret int64
	)
	if err := row.Scan(&res.ID, &pickup, &ret, &res.TotalPrice, &res.Phone, &res.CustomerName); err != nil {
		return domain.Reservation{}, err
	}
	res.PickupTime = domain.FromMillis(pickup)
	res.ReturnTime = domain.FromMillis(ret)
	return res, nil
}

var _ domain.ReservationRepository = (*reservationRepository)(nil)
