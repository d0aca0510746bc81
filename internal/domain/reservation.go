package domain

import (
	"strings"
	"time"
)

// Reservation — бронь клиента на один или несколько квадроциклов.
type Reservation struct {
	ID           int64
	PickupTime   time.Time
	ReturnTime   time.Time
	TotalPrice   float64
	Phone        int64
	CustomerName string
}

// Normalize приводит время к UTC с точностью до миллисекунд, как оно хранится.
func (r Reservation) Normalize() Reservation {
	r.PickupTime = FromMillis(ToMillis(r.PickupTime))
	r.ReturnTime = FromMillis(ToMillis(r.ReturnTime))
	return r
}

// Validate проверяет инварианты сохранённой брони.
func (r Reservation) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return NewValidationError(ReasonEmptyCustomerName)
	}
	if !r.PickupTime.IsZero() && !r.ReturnTime.IsZero() && r.ReturnTime.Before(r.PickupTime) {
		return NewValidationError(ReasonInvalidDateRange)
	}
	if r.TotalPrice < 0 {
		return NewValidationError(ReasonNegativeTotalPrice)
	}
	return nil
}

// ToMillis переводит время в epoch-миллисекунды; нулевое время даёт 0.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis обратна ToMillis: неположительное значение означает «не задано».
func FromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
