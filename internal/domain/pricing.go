package domain

import (
	"sort"
	"strings"
	"time"
)

// HelmetCountUnset обозначает выбранный квадроцикл без указанного числа шлемов.
const HelmetCountUnset = -1

const billingDayMillis = int64(24 * time.Hour / time.Millisecond)

// QuoteRequest — кандидат на бронь до сохранения.
type QuoteRequest struct {
	CustomerName string
	PickupTime   time.Time
	ReturnTime   time.Time
	// Selections: quadID -> число шлемов; отрицательное значение означает «не указано».
	Selections map[int64]int
}

// QuoteLine — вклад одного квадроцикла в итоговую цену.
type QuoteLine struct {
	QuadID      int64
	Plate       string
	DailyRate   int64
	HelmetCount int
	Amount      float64
}

// Quote — результат расчёта цены.
type Quote struct {
	TotalPrice float64
	Days       int64
	Lines      []QuoteLine
}

// BillableDays возвращает число оплачиваемых суток: целые сутки между датами, но не меньше одних.
// Считается по epoch-миллисекундам, как время и хранится. Если одна из дат не задана, считается одни сутки.
func BillableDays(pickup, ret time.Time) int64 {
	if pickup.IsZero() || ret.IsZero() {
		return 1
	}
	days := (ToMillis(ret) - ToMillis(pickup)) / billingDayMillis
	if days < 1 {
		return 1
	}
	return days
}

// ValidateRequest проверяет кандидата в фиксированном порядке и возвращает первую ошибку.
func ValidateRequest(req QuoteRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return NewValidationError(ReasonEmptyCustomerName)
	}
	if !req.PickupTime.IsZero() && !req.ReturnTime.IsZero() && req.ReturnTime.Before(req.PickupTime) {
		return NewValidationError(ReasonInvalidDateRange)
	}
	if len(req.Selections) == 0 {
		return NewValidationError(ReasonNoQuadsSelected)
	}
	for _, helmets := range req.Selections {
		if helmets < 0 {
			return NewValidationError(ReasonMissingHelmetCount)
		}
	}
	return nil
}

// CalculateQuote валидирует запрос и считает цену по снимку парка.
// Функция чистая: ничего не пишет и не читает из хранилища.
func CalculateQuote(req QuoteRequest, fleet map[int64]Quad) (Quote, error) {
	if err := ValidateRequest(req); err != nil {
		return Quote{}, err
	}

	ids := SelectedQuadIDs(req.Selections)
	days := BillableDays(req.PickupTime, req.ReturnTime)

	quote := Quote{
		Days:  days,
		Lines: make([]QuoteLine, 0, len(ids)),
	}
	for _, id := range ids {
		quad, ok := fleet[id]
		if !ok {
			return Quote{}, NewValidationError(ReasonUnknownQuad)
		}
		amount := float64(quad.DailyRate) * float64(days)
		quote.Lines = append(quote.Lines, QuoteLine{
			QuadID:      id,
			Plate:       quad.Plate,
			DailyRate:   quad.DailyRate,
			HelmetCount: req.Selections[id],
			Amount:      amount,
		})
		quote.TotalPrice += amount
	}

	return quote, nil
}

// SelectedQuadIDs возвращает идентификаторы выбора по возрастанию.
func SelectedQuadIDs(selections map[int64]int) []int64 {
	ids := make([]int64, 0, len(selections))
	for id := range selections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
