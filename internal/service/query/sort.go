package query

import (
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// QuadSort — поле сортировки списка парка.
type QuadSort string

const (
	QuadSortPlate         QuadSort = "plate"
	QuadSortTypeThenPlate QuadSort = "type"
	QuadSortPrice         QuadSort = "price"
)

// ReservationSort — поле сортировки списка броней.
type ReservationSort string

const (
	ReservationSortCustomer ReservationSort = "customer"
	ReservationSortPickup   ReservationSort = "pickup"
	ReservationSortReturn   ReservationSort = "return"
)

// ParseQuadSort возвращает false для неизвестного значения; пустая строка — сортировка по номеру.
func ParseQuadSort(raw string) (QuadSort, bool) {
	switch QuadSort(strings.ToLower(strings.TrimSpace(raw))) {
	case "", QuadSortPlate:
		return QuadSortPlate, true
	case QuadSortTypeThenPlate:
		return QuadSortTypeThenPlate, true
	case QuadSortPrice:
		return QuadSortPrice, true
	default:
		return "", false
	}
}

// ParseReservationSort возвращает false для неизвестного значения; пустая строка — по времени выдачи.
func ParseReservationSort(raw string) (ReservationSort, bool) {
	switch ReservationSort(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReservationSortPickup:
		return ReservationSortPickup, true
	case ReservationSortCustomer:
		return ReservationSortCustomer, true
	case ReservationSortReturn:
		return ReservationSortReturn, true
	default:
		return "", false
	}
}

// SortQuads сортирует срез на месте; равные элементы упорядочиваются по ID.
func SortQuads(quads []domain.Quad, by QuadSort) {
	sort.SliceStable(quads, func(i, j int) bool {
		a, b := quads[i], quads[j]
		switch by {
		case QuadSortTypeThenPlate:
			if a.Type.Rank() != b.Type.Rank() {
				return a.Type.Rank() < b.Type.Rank()
			}
			if a.Plate != b.Plate {
				return a.Plate < b.Plate
			}
		case QuadSortPrice:
			if a.DailyRate != b.DailyRate {
				return a.DailyRate < b.DailyRate
			}
		default:
			if a.Plate != b.Plate {
				return a.Plate < b.Plate
			}
		}
		return a.ID < b.ID
	})
}

// SortReservations сортирует срез на месте; имя клиента сравнивается без учёта регистра.
func SortReservations(reservations []domain.Reservation, by ReservationSort) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		switch by {
		case ReservationSortCustomer:
			an, bn := strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName)
			if an != bn {
				return an < bn
			}
		case ReservationSortReturn:
			if !a.ReturnTime.Equal(b.ReturnTime) {
				return a.ReturnTime.Before(b.ReturnTime)
			}
		default:
			if !a.PickupTime.Equal(b.PickupTime) {
				return a.PickupTime.Before(b.PickupTime)
			}
		}
		return a.ID < b.ID
	})
}
