package request

import (
	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type QuadRequest struct {
	Type        string `json:"type" binding:"required"`
	DailyRate   int64  `json:"daily_rate"`
	Plate       string `json:"plate" binding:"required"`
	Description string `json:"description"`
}

// ToDomain собирает квадроцикл; тип принимает и старые имена UNIPLAZA/BIPLAZA.
func (r QuadRequest) ToDomain(id int64) (domain.Quad, error) {
	quadType, err := domain.ParseQuadType(r.Type)
	if err != nil {
		return domain.Quad{}, err
	}
	return domain.Quad{
		ID:          id,
		Type:        quadType,
		DailyRate:   r.DailyRate,
		Plate:       r.Plate,
		Description: r.Description,
	}, nil
}
