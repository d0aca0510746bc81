package api

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	"github.com/vladislavdragonenkov/quadrental/internal/service/query"
	"github.com/vladislavdragonenkov/quadrental/internal/service/rental"
)

// RentalCommands — операции записи, реализуемые rental.Service.
type RentalCommands interface {
	CreateQuad(ctx context.Context, quad domain.Quad) (domain.Quad, error)
	UpdateQuad(ctx context.Context, quad domain.Quad) (domain.Quad, error)
	DeleteQuad(ctx context.Context, id int64, force bool) error
	QuoteReservation(ctx context.Context, draft rental.ReservationDraft) (domain.Quote, error)
	CreateReservation(ctx context.Context, draft rental.ReservationDraft) (rental.ReservationResult, error)
	UpdateReservation(ctx context.Context, id int64, draft rental.ReservationDraft) (rental.ReservationResult, error)
	DeleteReservation(ctx context.Context, id int64) error
	UpdateLinkHelmets(ctx context.Context, linkID int64, helmets int) (domain.Link, error)
}

// RentalQueries — операции чтения, реализуемые query.Facade.
type RentalQueries interface {
	Quad(ctx context.Context, id int64) (query.QuadView, error)
	Reservation(ctx context.Context, id int64) (query.ReservationView, error)
	Quads(ctx context.Context) ([]domain.Quad, error)
	Reservations(ctx context.Context) ([]domain.Reservation, error)
	LinksByReservation(ctx context.Context, reservationID int64) ([]domain.Link, error)
	LinksByQuad(ctx context.Context, quadID int64) ([]domain.Link, error)
	Link(ctx context.Context, id int64) (domain.Link, error)
}

var (
	_ RentalCommands = (*rental.Service)(nil)
	_ RentalQueries  = (*query.Facade)(nil)
)

var errInvalidID = errors.New("invalid id")

// pathID разбирает положительный идентификатор из пути.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(errInvalidID, "%s=%q", name, c.Param(name))
	}
	return id, nil
}
