package rental

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type quadEvent struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	DailyRate    int64  `json:"daily_rate"`
	Plate        string `json:"plate"`
	Description  string `json:"description,omitempty"`
	RemovedLinks int64  `json:"removed_links,omitempty"`
}

type linkEvent struct {
	ID          int64 `json:"id"`
	QuadID      int64 `json:"quad_id"`
	HelmetCount int   `json:"helmet_count"`
}

type reservationEvent struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"customer_name"`
	Phone        int64       `json:"phone,omitempty"`
	PickupTime   int64       `json:"pickup_time"`
	ReturnTime   int64       `json:"return_time"`
	TotalPrice   float64     `json:"total_price"`
	Days         int64       `json:"days,omitempty"`
	Quads        []linkEvent `json:"quads"`
}

func enqueueQuadEvent(ctx context.Context, outbox domain.OutboxRepository, eventType domain.EventType, quad domain.Quad, removedLinks int64) error {
	return enqueue(ctx, outbox, domain.AggregateQuad, quad.ID, eventType, quadEvent{
		ID:           quad.ID,
		Type:         string(quad.Type),
		DailyRate:    quad.DailyRate,
		Plate:        quad.Plate,
		Description:  quad.Description,
		RemovedLinks: removedLinks,
	})
}

func enqueueReservationEvent(ctx context.Context, outbox domain.OutboxRepository, eventType domain.EventType, res ReservationResult) error {
	payload := reservationEvent{
		ID:           res.Reservation.ID,
		CustomerName: res.Reservation.CustomerName,
		Phone:        res.Reservation.Phone,
		PickupTime:   domain.ToMillis(res.Reservation.PickupTime),
		ReturnTime:   domain.ToMillis(res.Reservation.ReturnTime),
		TotalPrice:   res.Reservation.TotalPrice,
		Days:         res.Quote.Days,
		Quads:        make([]linkEvent, 0, len(res.Links)),
	}
	for _, link := range res.Links {
		payload.Quads = append(payload.Quads, linkEvent{ID: link.ID, QuadID: link.QuadID, HelmetCount: link.HelmetCount})
	}
	return enqueue(ctx, outbox, domain.AggregateReservation, res.Reservation.ID, eventType, payload)
}

func enqueue(ctx context.Context, outbox domain.OutboxRepository, aggregateType string, aggregateID int64, eventType domain.EventType, payload any) error {
	if outbox == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %s payload", eventType)
	}
	_, err = outbox.Enqueue(ctx, domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   strconv.FormatInt(aggregateID, 10),
		EventType:     string(eventType),
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	})
	return errors.Wrapf(err, "enqueue %s", eventType)
}
