// Package query — read-side поверх хранилища для слоя представления.
// Ничего не кэширует: каждый вызов читает текущее состояние.
package query

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/workerpool"
)

// LinkedQuad — связь брони вместе с квадроциклом, на который она ссылается.
type LinkedQuad struct {
	Link domain.Link
	Quad domain.Quad
}

// ReservationView — бронь со всеми выбранными квадроциклами.
type ReservationView struct {
	Reservation domain.Reservation
	Quads       []LinkedQuad
}

// HelmetTotal возвращает общее число шлемов по брони.
func (v ReservationView) HelmetTotal() int {
	total := 0
	for _, q := range v.Quads {
		total += q.Link.HelmetCount
	}
	return total
}

// LinkedReservation — связь квадроцикла вместе с бронью.
type LinkedReservation struct {
	Link        domain.Link
	Reservation domain.Reservation
}

// QuadView — квадроцикл и брони, в которых он сейчас участвует.
type QuadView struct {
	Quad         domain.Quad
	Reservations []LinkedReservation
}

// HasActiveReservations сообщает, заблокирует ли удаление квадроцикла проверка каскада.
func (v QuadView) HasActiveReservations() bool {
	return len(v.Reservations) > 0
}

// Facade собирает представления из трёх репозиториев.
type Facade struct {
	repos domain.Repositories
	pool  *workerpool.Pool
}

// NewFacade создаёт фасад; pool может быть общим с rental.Service.
func NewFacade(repos domain.Repositories, pool *workerpool.Pool) *Facade {
	if pool == nil {
		pool = workerpool.New()
	}
	return &Facade{repos: repos, pool: pool}
}

// Quad возвращает квадроцикл или ErrNotFound.
func (f *Facade) Quad(ctx context.Context, id int64) (QuadView, error) {
	return workerpool.Call(ctx, f.pool, "get_quad", func(ctx context.Context) (QuadView, error) {
		quad, err := f.repos.Quads.GetByID(ctx, id)
		if err != nil {
			return QuadView{}, err
		}
		links, err := f.repos.Links.GetByQuad(ctx, id)
		if err != nil {
			return QuadView{}, errors.Wrapf(err, "links of quad %d", id)
		}

		view := QuadView{Quad: quad, Reservations: make([]LinkedReservation, 0, len(links))}
		for _, link := range links {
			reservation, err := f.repos.Reservations.GetByID(ctx, link.ReservationID)
			if err != nil {
				if domain.IsNotFound(err) {
					// Бронь удалена между чтениями; связь уже ушла каскадом.
					continue
				}
				return QuadView{}, err
			}
			view.Reservations = append(view.Reservations, LinkedReservation{Link: link, Reservation: reservation})
		}
		return view, nil
	})
}

// Reservation возвращает бронь со связями или ErrNotFound.
func (f *Facade) Reservation(ctx context.Context, id int64) (ReservationView, error) {
	return workerpool.Call(ctx, f.pool, "get_reservation", func(ctx context.Context) (ReservationView, error) {
		reservation, err := f.repos.Reservations.GetByID(ctx, id)
		if err != nil {
			return ReservationView{}, err
		}
		links, err := f.repos.Links.GetByReservation(ctx, id)
		if err != nil {
			return ReservationView{}, errors.Wrapf(err, "links of reservation %d", id)
		}

		view := ReservationView{Reservation: reservation, Quads: make([]LinkedQuad, 0, len(links))}
		for _, link := range links {
			quad, err := f.repos.Quads.GetByID(ctx, link.QuadID)
			if err != nil {
				if domain.IsNotFound(err) {
					continue
				}
				return ReservationView{}, err
			}
			view.Quads = append(view.Quads, LinkedQuad{Link: link, Quad: quad})
		}
		return view, nil
	})
}

// Quads возвращает весь парк в порядке хранилища (по номеру).
func (f *Facade) Quads(ctx context.Context) ([]domain.Quad, error) {
	return workerpool.Call(ctx, f.pool, "list_quads", f.repos.Quads.GetAll)
}

// Reservations возвращает все брони по времени выдачи.
func (f *Facade) Reservations(ctx context.Context) ([]domain.Reservation, error) {
	return workerpool.Call(ctx, f.pool, "list_reservations", f.repos.Reservations.GetAll)
}

func (f *Facade) LinksByReservation(ctx context.Context, reservationID int64) ([]domain.Link, error) {
	return workerpool.Call(ctx, f.pool, "links_by_reservation", func(ctx context.Context) ([]domain.Link, error) {
		if _, err := f.repos.Reservations.GetByID(ctx, reservationID); err != nil {
			return nil, err
		}
		return f.repos.Links.GetByReservation(ctx, reservationID)
	})
}

func (f *Facade) LinksByQuad(ctx context.Context, quadID int64) ([]domain.Link, error) {
	return workerpool.Call(ctx, f.pool, "links_by_quad", func(ctx context.Context) ([]domain.Link, error) {
		if _, err := f.repos.Quads.GetByID(ctx, quadID); err != nil {
			return nil, err
		}
		return f.repos.Links.GetByQuad(ctx, quadID)
	})
}

// Link возвращает связь по ID.
func (f *Facade) Link(ctx context.Context, id int64) (domain.Link, error) {
	return workerpool.Call(ctx, f.pool, "get_link", func(ctx context.Context) (domain.Link, error) {
		return f.repos.Links.GetByID(ctx, id)
	})
}
