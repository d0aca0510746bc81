package rental

import (
	"context"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

// QuoteReservation валидирует черновик и считает цену без записи в хранилище.
func (s *Service) QuoteReservation(ctx context.Context, draft ReservationDraft) (domain.Quote, error) {
	const op = "quote_reservation"
	req := draft.quoteRequest()
	if err := domain.ValidateRequest(req); err != nil {
		return domain.Quote{}, s.rejectInvalid(op, err)
	}

	var quote domain.Quote
	err := s.exec(ctx, op, func(ctx context.Context) error {
		fleet, err := loadFleet(ctx, s.store.Repositories().Quads, req.Selections)
		if err != nil {
			return err
		}
		quote, err = domain.CalculateQuote(req, fleet)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

// CreateReservation валидирует черновик, считает цену и атомарно сохраняет
// бронь, по одной связи на каждый выбранный квадроцикл и outbox-событие.
// При ошибке валидации хранилище не затрагивается.
func (s *Service) CreateReservation(ctx context.Context, draft ReservationDraft) (ReservationResult, error) {
	const op = "create_reservation"
	req := draft.quoteRequest()
	if err := domain.ValidateRequest(req); err != nil {
		return ReservationResult{}, s.rejectInvalid(op, err)
	}

	var result ReservationResult
	err := s.exec(ctx, op, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			fleet, err := loadFleet(ctx, repos.Quads, req.Selections)
			if err != nil {
				return err
			}
			quote, err := domain.CalculateQuote(req, fleet)
			if err != nil {
				return err
			}

			reservation := domain.Reservation{
				PickupTime:   draft.PickupTime,
				ReturnTime:   draft.ReturnTime,
				TotalPrice:   quote.TotalPrice,
				Phone:        draft.Phone,
				CustomerName: draft.CustomerName,
			}.Normalize()
			id, err := repos.Reservations.Insert(ctx, reservation)
			if err != nil {
				return errors.Wrap(err, "insert reservation")
			}
			reservation.ID = id

			links, err := insertLinks(ctx, repos.Links, id, req.Selections)
			if err != nil {
				return err
			}

			result = ReservationResult{Reservation: reservation, Links: links, Quote: quote}
			return enqueueReservationEvent(ctx, repos.Outbox, domain.EventReservationCreated, result)
		})
	})
	if err != nil {
		return ReservationResult{}, err
	}

	s.metrics.RecordReservationCreated(result.Reservation.TotalPrice)
	s.logger.WithFields(log.Fields{
		"reservation_id": result.Reservation.ID,
		"quads":          len(result.Links),
		"total_price":    result.Reservation.TotalPrice,
	}).Info("reservation created")
	return result, nil
}

// UpdateReservation пересчитывает цену и заменяет набор связей брони:
// все старые связи удаляются и вставляются новые, в одной транзакции.
func (s *Service) UpdateReservation(ctx context.Context, id int64, draft ReservationDraft) (ReservationResult, error) {
	const op = "update_reservation"
	req := draft.quoteRequest()
	if err := domain.ValidateRequest(req); err != nil {
		return ReservationResult{}, s.rejectInvalid(op, err)
	}

	var result ReservationResult
	err := s.exec(ctx, op, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			if _, err := repos.Reservations.GetByID(ctx, id); err != nil {
				return err
			}
			fleet, err := loadFleet(ctx, repos.Quads, req.Selections)
			if err != nil {
				return err
			}
			quote, err := domain.CalculateQuote(req, fleet)
			if err != nil {
				return err
			}

			reservation := domain.Reservation{
				ID:           id,
				PickupTime:   draft.PickupTime,
				ReturnTime:   draft.ReturnTime,
				TotalPrice:   quote.TotalPrice,
				Phone:        draft.Phone,
				CustomerName: draft.CustomerName,
			}.Normalize()
			affected, err := repos.Reservations.Update(ctx, reservation)
			if err != nil {
				return errors.Wrap(err, "update reservation")
			}
			if affected == 0 {
				return notFound("reservation", id)
			}

			if _, err := repos.Links.DeleteByReservation(ctx, id); err != nil {
				return errors.Wrap(err, "clear reservation links")
			}
			links, err := insertLinks(ctx, repos.Links, id, req.Selections)
			if err != nil {
				return err
			}

			result = ReservationResult{Reservation: reservation, Links: links, Quote: quote}
			return enqueueReservationEvent(ctx, repos.Outbox, domain.EventReservationUpdated, result)
		})
	})
	if err != nil {
		return ReservationResult{}, err
	}
	return result, nil
}

// DeleteReservation удаляет бронь; связи удаляются каскадно, квадроциклы остаются.
func (s *Service) DeleteReservation(ctx context.Context, id int64) error {
	return s.exec(ctx, "delete_reservation", func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			reservation, err := repos.Reservations.GetByID(ctx, id)
			if err != nil {
				return err
			}
			links, err := repos.Links.GetByReservation(ctx, id)
			if err != nil {
				return errors.Wrap(err, "load reservation links")
			}
			affected, err := repos.Reservations.Delete(ctx, id)
			if err != nil {
				return errors.Wrap(err, "delete reservation")
			}
			if affected == 0 {
				return notFound("reservation", id)
			}
			return enqueueReservationEvent(ctx, repos.Outbox, domain.EventReservationDeleted, ReservationResult{
				Reservation: reservation,
				Links:       links,
			})
		})
	})
}

// UpdateLinkHelmets меняет число шлемов в существующей связи; цена брони не меняется.
func (s *Service) UpdateLinkHelmets(ctx context.Context, linkID int64, helmets int) (domain.Link, error) {
	const op = "update_link"
	if err := (domain.Link{ID: linkID, HelmetCount: helmets}).Validate(); err != nil {
		return domain.Link{}, s.rejectInvalid(op, err)
	}

	var link domain.Link
	err := s.exec(ctx, op, func(ctx context.Context) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			current, err := repos.Links.GetByID(ctx, linkID)
			if err != nil {
				return err
			}
			current.HelmetCount = helmets
			affected, err := repos.Links.Update(ctx, current)
			if err != nil {
				return errors.Wrap(err, "update link")
			}
			if affected == 0 {
				return notFound("link", linkID)
			}
			link = current
			return nil
		})
	})
	return link, err
}

// loadFleet читает только выбранные квадроциклы; отсутствующие пропускаются,
// и расчёт цены отклонит их как неизвестные.
func loadFleet(ctx context.Context, quads domain.QuadRepository, selections map[int64]int) (map[int64]domain.Quad, error) {
	fleet := make(map[int64]domain.Quad, len(selections))
	for _, id := range domain.SelectedQuadIDs(selections) {
		quad, err := quads.GetByID(ctx, id)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, errors.Wrapf(err, "load quad %d", id)
		}
		fleet[id] = quad
	}
	return fleet, nil
}

func insertLinks(ctx context.Context, links domain.LinkRepository, reservationID int64, selections map[int64]int) ([]domain.Link, error) {
	result := make([]domain.Link, 0, len(selections))
	for _, quadID := range domain.SelectedQuadIDs(selections) {
		link := domain.Link{
			ReservationID: reservationID,
			QuadID:        quadID,
			HelmetCount:   selections[quadID],
		}
		id, err := links.Insert(ctx, link)
		if err != nil {
			return nil, errors.Wrapf(err, "insert link for quad %d", quadID)
		}
		link.ID = id
		result = append(result, link)
	}
	return result, nil
}
