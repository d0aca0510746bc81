package rental

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// ResetAll удаляет все связи, брони и квадроциклы. Только для демо-данных и тестов.
func (s *Service) ResetAll(ctx context.Context) error {
	return s.exec(ctx, "reset_all", func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			if err := repos.Links.DeleteAll(ctx); err != nil {
				return errors.Wrap(err, "delete links")
			}
			if err := repos.Reservations.DeleteAll(ctx); err != nil {
				return errors.Wrap(err, "delete reservations")
			}
			return errors.Wrap(repos.Quads.DeleteAll(ctx), "delete quads")
		})
	})
}

// DemoFleet — парк для демонстрационного наполнения.
func DemoFleet() []domain.Quad {
	return []domain.Quad{
		{Type: domain.QuadTypeSingleSeat, DailyRate: 80, Plate: "AAA-001", Description: "Quad demo 1"},
		{Type: domain.QuadTypeTwoSeat, DailyRate: 100, Plate: "BBB-002", Description: "Quad demo 2"},
		{Type: domain.QuadTypeSingleSeat, DailyRate: 90, Plate: "CCC-003", Description: "Quad demo 3"},
		{Type: domain.QuadTypeTwoSeat, DailyRate: 110, Plate: "DDD-004", Description: "Quad demo 4"},
		{Type: domain.QuadTypeSingleSeat, DailyRate: 95, Plate: "EEE-005", Description: "Quad demo 5"},
	}
}

type demoReservation struct {
	customer   string
	phone      int64
	startDay   int
	endDay     int
	selections map[int]int // индекс в DemoFleet -> шлемы
}

var demoReservations = []demoReservation{
	{customer: "Cliente A", phone: 600111222, startDay: 1, endDay: 2, selections: map[int]int{0: 2}},
	{customer: "Cliente B", phone: 600222333, startDay: 2, endDay: 4, selections: map[int]int{1: 1, 2: 2}},
	{customer: "Cliente C", phone: 600333444, startDay: 3, endDay: 5, selections: map[int]int{0: 1, 3: 1, 4: 0}},
	{customer: "Cliente D", phone: 600444555, startDay: 4, endDay: 6, selections: map[int]int{1: 1}},
	{customer: "Cliente E", phone: 600555666, startDay: 5, endDay: 6, selections: map[int]int{4: 1}},
}

// SeedSummary — сколько записей создало демо-наполнение.
type SeedSummary struct {
	Quads        int
	Reservations int
	Links        int
}

// SeedDemo очищает хранилище и заполняет его демо-парком и бронями относительно now.
// Цены броней считаются движком расчёта.
func (s *Service) SeedDemo(ctx context.Context, now time.Time) (SeedSummary, error) {
	var summary SeedSummary
	if err := s.ResetAll(ctx); err != nil {
		return summary, err
	}

	fleet := DemoFleet()
	ids := make([]int64, len(fleet))
	for i, quad := range fleet {
		created, err := s.CreateQuad(ctx, quad)
		if err != nil {
			return summary, errors.Wrapf(err, "seed quad %s", quad.Plate)
		}
		ids[i] = created.ID
		summary.Quads++
	}

	const day = 24 * time.Hour
	for _, demo := range demoReservations {
		selections := make(map[int64]int, len(demo.selections))
		for idx, helmets := range demo.selections {
			selections[ids[idx]] = helmets
		}
		res, err := s.CreateReservation(ctx, ReservationDraft{
			CustomerName: demo.customer,
			Phone:        demo.phone,
			PickupTime:   now.Add(time.Duration(demo.startDay) * day),
			ReturnTime:   now.Add(time.Duration(demo.endDay) * day),
			Selections:   selections,
		})
		if err != nil {
			return summary, errors.Wrapf(err, "seed reservation for %s", demo.customer)
		}
		summary.Reservations++
		summary.Links += len(res.Links)
	}

	return summary, nil
}
