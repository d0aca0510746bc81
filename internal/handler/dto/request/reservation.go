package request

import (
	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
)

// QuadSelection — выбранный квадроцикл; helmet_count можно не указывать.
type QuadSelection struct {
	QuadID      int64 `json:"quad_id" binding:"required"`
	HelmetCount *int  `json:"helmet_count"`
}

// ReservationRequest не проверяет бизнес-правила: их порядок задаёт сервис.
type ReservationRequest struct {
	CustomerName string          `json:"customer_name"`
	Phone        int64           `json:"phone"`
	PickupTime   Timestamp       `json:"pickup_time"`
	ReturnTime   Timestamp       `json:"return_time"`
	Quads        []QuadSelection `json:"quads" binding:"dive"`
}

// ToDraft переводит запрос в черновик брони. Повтор квадроцикла заменяет предыдущий выбор.
func (r ReservationRequest) ToDraft() rental.ReservationDraft {
	selections := make(map[int64]int, len(r.Quads))
	for _, q := range r.Quads {
		helmets := domain.HelmetCountUnset
		if q.HelmetCount != nil {
			helmets = *q.HelmetCount
		}
		selections[q.QuadID] = helmets
	}
	return rental.ReservationDraft{
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		PickupTime:   r.PickupTime.Time,
		ReturnTime:   r.ReturnTime.Time,
		Selections:   selections,
	}
}

type LinkUpdateRequest struct {
	HelmetCount *int `json:"helmet_count" binding:"required"`
}
