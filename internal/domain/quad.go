package domain

import "strings"

// QuadType — тип квадроцикла по числу посадочных мест.
type QuadType string

const (
	QuadTypeSingleSeat QuadType = "SINGLE_SEAT"
	QuadTypeTwoSeat    QuadType = "TWO_SEAT"
)

// ParseQuadType принимает как текущие имена, так и старые UNIPLAZA/BIPLAZA.
func ParseQuadType(raw string) (QuadType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(QuadTypeSingleSeat), "UNIPLAZA", "SINGLE":
		return QuadTypeSingleSeat, nil
	case string(QuadTypeTwoSeat), "BIPLAZA", "TWO":
		return QuadTypeTwoSeat, nil
	default:
		return "", NewValidationError(ReasonInvalidQuadType)
	}
}

// Valid сообщает, является ли значение известным типом.
func (t QuadType) Valid() bool {
	return t == QuadTypeSingleSeat || t == QuadTypeTwoSeat
}

// Rank задаёт порядок типов при сортировке: одноместные раньше двухместных.
func (t QuadType) Rank() int {
	switch t {
	case QuadTypeSingleSeat:
		return 0
	case QuadTypeTwoSeat:
		return 1
	default:
		return 2
	}
}

// Quad — единица парка, сдаваемая в аренду.
type Quad struct {
	ID          int64
	Type        QuadType
	DailyRate   int64
	Plate       string
	Description string
}

// Validate проверяет поля квадроцикла перед записью.
func (q Quad) Validate() error {
	if strings.TrimSpace(q.Plate) == "" {
		return NewValidationError(ReasonEmptyPlate)
	}
	if q.DailyRate < 0 {
		return NewValidationError(ReasonNegativeDailyRate)
	}
	if !q.Type.Valid() {
		return NewValidationError(ReasonInvalidQuadType)
	}
	return nil
}
