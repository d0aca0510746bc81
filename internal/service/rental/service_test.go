package rental_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/metrics"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
	"github.com/vladislavdragonenkov/quadrental/internal/storage/memory"
	"github.com/vladislavdragonenkov/quadrental/internal/workerpool"
)

var day0 = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, store domain.Store) *rental.Service {
	t.Helper()
	return rental.NewService(store,
		rental.WithPool(workerpool.New(workerpool.WithTimeout(2*time.Second))),
		rental.WithMetrics(metrics.NewRentalMetricsWithRegisterer(prometheus.NewRegistry())),
	)
}

type counts struct {
	quads, reservations, links, outbox int
}

func countAll(t *testing.T, store domain.Store) counts {
	t.Helper()
	ctx := context.Background()
	repos := store.Repositories()

	quads, err := repos.Quads.GetAll(ctx)
	require.NoError(t, err)
	reservations, err := repos.Reservations.GetAll(ctx)
	require.NoError(t, err)
	links := 0
	for _, r := range reservations {
		l, err := repos.Links.GetByReservation(ctx, r.ID)
		require.NoError(t, err)
		links += len(l)
	}
	stats, err := repos.Outbox.Stats(ctx)
	require.NoError(t, err)

	return counts{quads: len(quads), reservations: len(reservations), links: links, outbox: stats.PendingCount}
}

func createQuad(t *testing.T, svc *rental.Service, plate string, rate int64) domain.Quad {
	t.Helper()
	quad, err := svc.CreateQuad(context.Background(), domain.Quad{Type: domain.QuadTypeSingleSeat, DailyRate: rate, Plate: plate})
	require.NoError(t, err)
	return quad
}

func TestCreateReservation_PricesSelectedQuads(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	ctx := context.Background()
	quadA := createQuad(t, svc, "AAA-001", 80)
	quadB := createQuad(t, svc, "BBB-002", 90)

	res, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente A",
		Phone:        600111222,
		PickupTime:   day0,
		ReturnTime:   day0.Add(48 * time.Hour),
		Selections:   map[int64]int{quadA.ID: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 160.0, res.Reservation.TotalPrice)
	require.Equal(t, int64(2), res.Quote.Days)
	require.Len(t, res.Links, 1)
	require.Equal(t, 2, res.Links[0].HelmetCount)

	sameDay, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente B",
		PickupTime:   day0,
		ReturnTime:   day0,
		Selections:   map[int64]int{quadB.ID: 0},
	})
	require.NoError(t, err)
	require.Equal(t, 90.0, sameDay.Reservation.TotalPrice)

	stored, err := store.Repositories().Reservations.GetByID(ctx, res.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, res.Reservation, stored)

	// Удаление квадроцикла A убирает только его связь.
	require.NoError(t, svc.DeleteQuad(ctx, quadA.ID, true))
	links, err := store.Repositories().Links.GetByReservation(ctx, res.Reservation.ID)
	require.NoError(t, err)
	require.Empty(t, links)
	_, err = store.Repositories().Reservations.GetByID(ctx, res.Reservation.ID)
	require.NoError(t, err)
	links, err = store.Repositories().Links.GetByReservation(ctx, sameDay.Reservation.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestCreateReservation_ValidationWritesNothing(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	quad := createQuad(t, svc, "AAA-001", 80)
	before := countAll(t, store)

	tests := []struct {
		name   string
		draft  rental.ReservationDraft
		reason string
	}{
		{
			name:   "empty customer name",
			draft:  rental.ReservationDraft{PickupTime: day0, ReturnTime: day0, Selections: map[int64]int{quad.ID: 1}},
			reason: domain.ReasonEmptyCustomerName,
		},
		{
			name:   "return before pickup",
			draft:  rental.ReservationDraft{CustomerName: "c", PickupTime: day0, ReturnTime: day0.Add(-time.Hour), Selections: map[int64]int{quad.ID: 1}},
			reason: domain.ReasonInvalidDateRange,
		},
		{
			name:   "no quads",
			draft:  rental.ReservationDraft{CustomerName: "c", PickupTime: day0, ReturnTime: day0},
			reason: domain.ReasonNoQuadsSelected,
		},
		{
			name:   "missing helmet count",
			draft:  rental.ReservationDraft{CustomerName: "c", Selections: map[int64]int{quad.ID: domain.HelmetCountUnset}},
			reason: domain.ReasonMissingHelmetCount,
		},
		{
			name:   "unknown quad",
			draft:  rental.ReservationDraft{CustomerName: "c", Selections: map[int64]int{quad.ID: 1, 999: 1}},
			reason: domain.ReasonUnknownQuad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReservation(context.Background(), tt.draft)
			require.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
			require.Equal(t, tt.reason, domain.ValidationReason(err))
			require.Equal(t, before, countAll(t, store))
		})
	}
}

func TestCreateReservation_AtomicOnLinkFailure(t *testing.T) {
	inner := memory.NewStore()
	svc := newService(t, inner)
	quad := createQuad(t, svc, "AAA-001", 80)
	before := countAll(t, inner)

	failing := newService(t, &failingLinksStore{Store: inner})
	_, err := failing.CreateReservation(context.Background(), rental.ReservationDraft{
		CustomerName: "Cliente A",
		Selections:   map[int64]int{quad.ID: 1},
	})
	require.True(t, errors.Is(err, domain.ErrStorageFailure), "got %v", err)
	require.Equal(t, before, countAll(t, inner))
}

func TestUpdateReservation_ReplacesLinkSet(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	ctx := context.Background()
	a := createQuad(t, svc, "AAA-001", 80)
	b := createQuad(t, svc, "BBB-002", 100)
	c := createQuad(t, svc, "CCC-003", 90)

	created, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente B",
		PickupTime:   day0,
		ReturnTime:   day0.Add(48 * time.Hour),
		Selections:   map[int64]int{a.ID: 1, b.ID: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 360.0, created.Reservation.TotalPrice)

	updated, err := svc.UpdateReservation(ctx, created.Reservation.ID, rental.ReservationDraft{
		CustomerName: "Cliente B2",
		PickupTime:   day0,
		ReturnTime:   day0.Add(72 * time.Hour),
		Selections:   map[int64]int{b.ID: 0, c.ID: 3},
	})
	require.NoError(t, err)
	require.Equal(t, float64((100+90)*3), updated.Reservation.TotalPrice)

	links, err := store.Repositories().Links.GetByReservation(ctx, created.Reservation.ID)
	require.NoError(t, err)
	got := map[int64]int{}
	for _, l := range links {
		got[l.QuadID] = l.HelmetCount
	}
	require.Equal(t, map[int64]int{b.ID: 0, c.ID: 3}, got)

	byA, err := store.Repositories().Links.GetByQuad(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, byA)

	stored, err := store.Repositories().Reservations.GetByID(ctx, created.Reservation.ID)
	require.NoError(t, err)
	require.Equal(t, "Cliente B2", stored.CustomerName)
}

func TestUpdateReservation_NotFound(t *testing.T) {
	svc := newService(t, memory.NewStore())
	quad := createQuad(t, svc, "AAA-001", 80)

	_, err := svc.UpdateReservation(context.Background(), 42, rental.ReservationDraft{
		CustomerName: "nobody",
		Selections:   map[int64]int{quad.ID: 1},
	})
	require.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func TestDeleteQuad_CascadeConflict(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	ctx := context.Background()
	quad := createQuad(t, svc, "AAA-001", 80)
	res, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente A",
		Selections:   map[int64]int{quad.ID: 1},
	})
	require.NoError(t, err)

	err = svc.DeleteQuad(ctx, quad.ID, false)
	require.True(t, errors.Is(err, domain.ErrCascadeConflict), "got %v", err)
	_, err = store.Repositories().Quads.GetByID(ctx, quad.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuad(ctx, quad.ID, true))
	_, err = store.Repositories().Quads.GetByID(ctx, quad.ID)
	require.True(t, domain.IsNotFound(err))
	_, err = store.Repositories().Reservations.GetByID(ctx, res.Reservation.ID)
	require.NoError(t, err)

	require.True(t, domain.IsNotFound(svc.DeleteQuad(ctx, quad.ID, true)))
}

func TestDeleteReservation_Cascade(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	ctx := context.Background()
	a := createQuad(t, svc, "AAA-001", 80)
	b := createQuad(t, svc, "BBB-002", 100)
	res, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente C",
		Selections:   map[int64]int{a.ID: 1, b.ID: 1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReservation(ctx, res.Reservation.ID))
	for _, q := range []int64{a.ID, b.ID} {
		links, err := store.Repositories().Links.GetByQuad(ctx, q)
		require.NoError(t, err)
		require.Empty(t, links)
		_, err = store.Repositories().Quads.GetByID(ctx, q)
		require.NoError(t, err)
	}
	require.True(t, domain.IsNotFound(svc.DeleteReservation(ctx, res.Reservation.ID)))
}

func TestUpdateQuad(t *testing.T) {
	svc := newService(t, memory.NewStore())
	quad := createQuad(t, svc, "AAA-001", 80)

	quad.DailyRate = 85
	updated, err := svc.UpdateQuad(context.Background(), quad)
	require.NoError(t, err)
	require.Equal(t, int64(85), updated.DailyRate)

	_, err = svc.UpdateQuad(context.Background(), domain.Quad{ID: 404, Type: domain.QuadTypeTwoSeat, Plate: "ZZZ"})
	require.True(t, domain.IsNotFound(err))

	_, err = svc.CreateQuad(context.Background(), domain.Quad{Type: domain.QuadTypeTwoSeat})
	require.Equal(t, domain.ReasonEmptyPlate, domain.ValidationReason(err))
}

func TestUpdateLinkHelmets(t *testing.T) {
	svc := newService(t, memory.NewStore())
	ctx := context.Background()
	quad := createQuad(t, svc, "AAA-001", 80)
	res, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente A",
		Selections:   map[int64]int{quad.ID: 1},
	})
	require.NoError(t, err)

	link, err := svc.UpdateLinkHelmets(ctx, res.Links[0].ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, link.HelmetCount)

	_, err = svc.UpdateLinkHelmets(ctx, res.Links[0].ID, -1)
	require.Equal(t, domain.ReasonNegativeHelmets, domain.ValidationReason(err))
	_, err = svc.UpdateLinkHelmets(ctx, 999, 1)
	require.True(t, domain.IsNotFound(err))
}

func TestQuoteReservation_DoesNotWrite(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	quad := createQuad(t, svc, "AAA-001", 80)
	before := countAll(t, store)

	quote, err := svc.QuoteReservation(context.Background(), rental.ReservationDraft{
		CustomerName: "Cliente A",
		PickupTime:   day0,
		ReturnTime:   day0.Add(5 * 24 * time.Hour),
		Selections:   map[int64]int{quad.ID: 0},
	})
	require.NoError(t, err)
	require.Equal(t, 400.0, quote.TotalPrice)
	require.Equal(t, before, countAll(t, store))
}

func TestCreateReservation_EnqueuesEvent(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	ctx := context.Background()
	quad := createQuad(t, svc, "AAA-001", 80)

	res, err := svc.CreateReservation(ctx, rental.ReservationDraft{
		CustomerName: "Cliente A",
		PickupTime:   day0,
		ReturnTime:   day0.Add(24 * time.Hour),
		Selections:   map[int64]int{quad.ID: 2},
	})
	require.NoError(t, err)

	pending, err := store.Repositories().Outbox.PullPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, string(domain.EventQuadCreated), pending[0].EventType)

	event := pending[1]
	require.Equal(t, string(domain.EventReservationCreated), event.EventType)
	require.Equal(t, domain.AggregateReservation, event.AggregateType)

	var payload struct {
		ID         int64   `json:"id"`
		TotalPrice float64 `json:"total_price"`
		PickupTime int64   `json:"pickup_time"`
		Quads      []struct {
			QuadID      int64 `json:"quad_id"`
			HelmetCount int   `json:"helmet_count"`
		} `json:"quads"`
	}
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	require.Equal(t, res.Reservation.ID, payload.ID)
	require.Equal(t, 80.0, payload.TotalPrice)
	require.Equal(t, day0.UnixMilli(), payload.PickupTime)
	require.Len(t, payload.Quads, 1)
	require.Equal(t, 2, payload.Quads[0].HelmetCount)
}

func TestSeedDemo(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)
	ctx := context.Background()
	createQuad(t, svc, "OLD-000", 10)

	summary, err := svc.SeedDemo(ctx, day0)
	require.NoError(t, err)
	require.Equal(t, rental.SeedSummary{Quads: 5, Reservations: 5, Links: 8}, summary)

	got := countAll(t, store)
	require.Equal(t, 5, got.quads)
	require.Equal(t, 5, got.reservations)
	require.Equal(t, 8, got.links)

	quads, err := store.Repositories().Quads.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "AAA-001", quads[0].Plate)

	// Повторный запуск не дублирует данные.
	_, err = svc.SeedDemo(ctx, day0)
	require.NoError(t, err)
	require.Equal(t, 5, countAll(t, store).reservations)
}

// failingLinksStore подменяет вставку связей внутри транзакции ошибкой хранилища.
type failingLinksStore struct {
	*memory.Store
}

func (s *failingLinksStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		repos.Links = failingLinks{LinkRepository: repos.Links}
		return fn(ctx, repos)
	})
}

type failingLinks struct {
	domain.LinkRepository
}

func (failingLinks) Insert(context.Context, domain.Link) (int64, error) {
	return -1, errors.Mark(errors.New("disk full"), domain.ErrStorageFailure)
}
