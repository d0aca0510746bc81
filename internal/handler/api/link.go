package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	reqdto "github.com/vladislavdragonenkov/quadrental/internal/handler/dto/request"
	resdto "github.com/vladislavdragonenkov/quadrental/internal/handler/dto/response"
	"github.com/vladislavdragonenkov/quadrental/internal/handler/httperr"
)

type LinkHandler struct {
	commands RentalCommands
	queries  RentalQueries
}

func NewLinkHandler(commands RentalCommands, queries RentalQueries) *LinkHandler {
	return &LinkHandler{commands: commands, queries: queries}
}

func (h *LinkHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid link ID")
		return
	}

	link, err := h.queries.Link(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLink(link))
}

// UpdateHelmets меняет только число шлемов; цена брони не пересчитывается.
func (h *LinkHandler) UpdateHelmets(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid link ID")
		return
	}

	var req reqdto.LinkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err, "Invalid request format")
		return
	}

	link, err := h.commands.UpdateLinkHelmets(c.Request.Context(), id, *req.HelmetCount)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLink(link))
}
