package memory

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type reservationRepository struct {
	sess session
}

func (r *reservationRepository) Insert(ctx context.Context, reservation domain.Reservation) (int64, error) {
	if err := reservation.Validate(); err != nil {
		return -1, err
	}
	reservation = reservation.Normalize()
	id := int64(-1)
	err := r.sess.write(ctx, func(st *state) error {
		if reservation.ID != 0 {
			if _, exists := st.reservations[reservation.ID]; exists {
				return errors.Wrapf(domain.ErrConflict, "reservation %d already exists", reservation.ID)
			}
			if reservation.ID > st.reservationSeq {
				st.reservationSeq = reservation.ID
			}
		} else {
			st.reservationSeq++
			reservation.ID = st.reservationSeq
		}
		st.reservations[reservation.ID] = reservation
		id = reservation.ID
		return nil
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (r *reservationRepository) Update(ctx context.Context, reservation domain.Reservation) (int64, error) {
	if err := reservation.Validate(); err != nil {
		return 0, err
	}
	reservation = reservation.Normalize()
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		if _, ok := st.reservations[reservation.ID]; !ok {
			return nil
		}
		st.reservations[reservation.ID] = reservation
		affected = 1
		return nil
	})
	return affected, err
}

// Delete удаляет бронь и её связи; квадроциклы не затрагиваются.
func (r *reservationRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.sess.write(ctx, func(st *state) error {
		if _, ok := st.reservations[id]; !ok {
			return nil
		}
		delete(st.reservations, id)
		for linkID, link := range st.links {
			if link.ReservationID == id {
				delete(st.links, linkID)
			}
		}
		affected = 1
		return nil
	})
	return affected, err
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (domain.Reservation, error) {
	var (
		reservation domain.Reservation
		ok          bool
	)
	if err := r.sess.read(ctx, func(st *state) { reservation, ok = st.reservations[id] }); err != nil {
		return domain.Reservation{}, err
	}
	if !ok {
		return domain.Reservation{}, errors.Wrapf(domain.ErrNotFound, "reservation %d", id)
	}
	return reservation, nil
}

// GetAll возвращает брони по времени выдачи.
func (r *reservationRepository) GetAll(ctx context.Context) ([]domain.Reservation, error) {
	var result []domain.Reservation
	err := r.sess.read(ctx, func(st *state) {
		result = make([]domain.Reservation, 0, len(st.reservations))
		for _, reservation := range st.reservations {
			result = append(result, reservation)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].PickupTime, result[j].PickupTime
		if !a.Equal(b) {
			return a.Before(b)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *reservationRepository) DeleteAll(ctx context.Context) error {
	return r.sess.write(ctx, func(st *state) error {
		st.reservations = make(map[int64]domain.Reservation)
		st.links = make(map[int64]domain.Link)
		return nil
	})
}

var _ domain.ReservationRepository = (*reservationRepository)(nil)
