package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
	reqdto "github.com/vladislavdragonenkov/quadrental/internal/handler/dto/request"
	resdto "github.com/vladislavdragonenkov/quadrental/internal/handler/dto/response"
	"github.com/vladislavdragonenkov/quadrental/internal/handler/httperr"
	"github.com/vladislavdragonenkov/quadrental/internal/service/query"
)

var errInvalidSort = errors.New("invalid sort parameter")

type ReservationHandler struct {
	commands RentalCommands
	queries  RentalQueries
}

func NewReservationHandler(commands RentalCommands, queries RentalQueries) *ReservationHandler {
	return &ReservationHandler{commands: commands, queries: queries}
}

// List возвращает брони; ?sort=customer|pickup|return.
func (h *ReservationHandler) List(c *gin.Context) {
	by, ok := query.ParseReservationSort(c.Query("sort"))
	if !ok {
		httperr.BadRequest(c, errInvalidSort, "Invalid sort parameter")
		return
	}

	reservations, err := h.queries.Reservations(c.Request.Context())
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	query.SortReservations(reservations, by)

	c.JSON(http.StatusOK, resdto.FromReservations(reservations))
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid reservation ID")
		return
	}

	view, err := h.queries.Reservation(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// Quote считает цену без записи в хранилище.
func (h *ReservationHandler) Quote(c *gin.Context) {
	req, ok := bindReservation(c)
	if !ok {
		return
	}

	quote, err := h.commands.QuoteReservation(c.Request.Context(), req.ToDraft())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromQuote(quote))
}

func (h *ReservationHandler) Create(c *gin.Context) {
	req, ok := bindReservation(c)
	if !ok {
		return
	}

	result, err := h.commands.CreateReservation(c.Request.Context(), req.ToDraft())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromReservationResult(result))
}

func (h *ReservationHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid reservation ID")
		return
	}
	req, ok := bindReservation(c)
	if !ok {
		return
	}

	result, err := h.commands.UpdateReservation(c.Request.Context(), id, req.ToDraft())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationResult(result))
}

func (h *ReservationHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid reservation ID")
		return
	}

	if err := h.commands.DeleteReservation(c.Request.Context(), id); err != nil {
		httperr.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) Links(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid reservation ID")
		return
	}

	links, err := h.queries.LinksByReservation(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLinks(links))
}

// bindReservation отвечает 400 сам; некорректная дата несёт причину валидации.
func bindReservation(c *gin.Context) (reqdto.ReservationRequest, bool) {
	var req reqdto.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			httperr.FromError(c, err)
		} else {
			httperr.BadRequest(c, err, "Invalid request format")
		}
		return req, false
	}
	return req, true
}
