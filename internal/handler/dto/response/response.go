// Package response описывает JSON-ответы API. Время отдаётся в epoch-миллисекундах.
package response

import (
	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/service/query"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
)

type QuadResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	DailyRate   int64  `json:"daily_rate"`
	Plate       string `json:"plate"`
	Description string `json:"description"`
}

type ReservationResponse struct {
	ID           int64   `json:"id"`
	PickupTime   int64   `json:"pickup_time"`
	ReturnTime   int64   `json:"return_time"`
	TotalPrice   float64 `json:"total_price"`
	Phone        int64   `json:"phone"`
	CustomerName string  `json:"customer_name"`
}

type LinkResponse struct {
	ID            int64 `json:"id"`
	ReservationID int64 `json:"reservation_id"`
	QuadID        int64 `json:"quad_id"`
	HelmetCount   int   `json:"helmet_count"`
}

type LinkedQuadResponse struct {
	LinkID      int64        `json:"link_id"`
	HelmetCount int          `json:"helmet_count"`
	Quad        QuadResponse `json:"quad"`
}

type ReservationViewResponse struct {
	ReservationResponse
	HelmetTotal int                  `json:"helmet_total"`
	Quads       []LinkedQuadResponse `json:"quads"`
}

type LinkedReservationResponse struct {
	LinkID      int64               `json:"link_id"`
	HelmetCount int                 `json:"helmet_count"`
	Reservation ReservationResponse `json:"reservation"`
}

type QuadViewResponse struct {
	QuadResponse
	HasActiveReservations bool                        `json:"has_active_reservations"`
	Reservations          []LinkedReservationResponse `json:"reservations"`
}

type QuoteLineResponse struct {
	QuadID      int64   `json:"quad_id"`
	Plate       string  `json:"plate"`
	DailyRate   int64   `json:"daily_rate"`
	HelmetCount int     `json:"helmet_count"`
	Amount      float64 `json:"amount"`
}

type QuoteResponse struct {
	TotalPrice float64             `json:"total_price"`
	Days       int64               `json:"days"`
	Lines      []QuoteLineResponse `json:"lines"`
}

type ReservationResultResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Links       []LinkResponse      `json:"links"`
	Quote       QuoteResponse       `json:"quote"`
}

func FromQuad(q domain.Quad) QuadResponse {
	return QuadResponse{
		ID:          q.ID,
		Type:        string(q.Type),
		DailyRate:   q.DailyRate,
		Plate:       q.Plate,
		Description: q.Description,
	}
}

func FromQuads(quads []domain.Quad) []QuadResponse {
	out := make([]QuadResponse, len(quads))
	for i, q := range quads {
		out[i] = FromQuad(q)
	}
	return out
}

func FromReservation(r domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:           r.ID,
		PickupTime:   domain.ToMillis(r.PickupTime),
		ReturnTime:   domain.ToMillis(r.ReturnTime),
		TotalPrice:   r.TotalPrice,
		Phone:        r.Phone,
		CustomerName: r.CustomerName,
	}
}

func FromReservations(reservations []domain.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		out[i] = FromReservation(r)
	}
	return out
}

func FromLink(l domain.Link) LinkResponse {
	return LinkResponse{
		ID:            l.ID,
		ReservationID: l.ReservationID,
		QuadID:        l.QuadID,
		HelmetCount:   l.HelmetCount,
	}
}

func FromLinks(links []domain.Link) []LinkResponse {
	out := make([]LinkResponse, len(links))
	for i, l := range links {
		out[i] = FromLink(l)
	}
	return out
}

func FromReservationView(v query.ReservationView) ReservationViewResponse {
	quads := make([]LinkedQuadResponse, len(v.Quads))
	for i, lq := range v.Quads {
		quads[i] = LinkedQuadResponse{
			LinkID:      lq.Link.ID,
			HelmetCount: lq.Link.HelmetCount,
			Quad:        FromQuad(lq.Quad),
		}
	}
	return ReservationViewResponse{
		ReservationResponse: FromReservation(v.Reservation),
		HelmetTotal:         v.HelmetTotal(),
		Quads:               quads,
	}
}

func FromQuadView(v query.QuadView) QuadViewResponse {
	reservations := make([]LinkedReservationResponse, len(v.Reservations))
	for i, lr := range v.Reservations {
		reservations[i] = LinkedReservationResponse{
			LinkID:      lr.Link.ID,
			HelmetCount: lr.Link.HelmetCount,
			Reservation: FromReservation(lr.Reservation),
		}
	}
	return QuadViewResponse{
		QuadResponse:          FromQuad(v.Quad),
		HasActiveReservations: v.HasActiveReservations(),
		Reservations:          reservations,
	}
}

func FromQuote(q domain.Quote) QuoteResponse {
	lines := make([]QuoteLineResponse, len(q.Lines))
	for i, l := range q.Lines {
		lines[i] = QuoteLineResponse{
			QuadID:      l.QuadID,
			Plate:       l.Plate,
			DailyRate:   l.DailyRate,
			HelmetCount: l.HelmetCount,
			Amount:      l.Amount,
		}
	}
	return QuoteResponse{TotalPrice: q.TotalPrice, Days: q.Days, Lines: lines}
}

func FromReservationResult(r rental.ReservationResult) ReservationResultResponse {
	return ReservationResultResponse{
		Reservation: FromReservation(r.Reservation),
		Links:       FromLinks(r.Links),
		Quote:       FromQuote(r.Quote),
	}
}
