package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	reqdto "github.com/vladislavdragonenkov/quadrental/internal/handler/dto/request"
	resdto "github.com/vladislavdragonenkov/quadrental/internal/handler/dto/response"
	"github.com/vladislavdragonenkov/quadrental/internal/handler/httperr"
	"github.com/vladislavdragonenkov/quadrental/internal/service/query"
)

type QuadHandler struct {
	commands RentalCommands
	queries  RentalQueries
}

func NewQuadHandler(commands RentalCommands, queries RentalQueries) *QuadHandler {
	return &QuadHandler{commands: commands, queries: queries}
}

// List возвращает парк; ?sort=plate|type|price.
func (h *QuadHandler) List(c *gin.Context) {
	by, ok := query.ParseQuadSort(c.Query("sort"))
	if !ok {
		httperr.BadRequest(c, errInvalidSort, "Invalid sort parameter")
		return
	}

	quads, err := h.queries.Quads(c.Request.Context())
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	query.SortQuads(quads, by)

	c.JSON(http.StatusOK, resdto.FromQuads(quads))
}

func (h *QuadHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid quad ID")
		return
	}

	view, err := h.queries.Quad(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromQuadView(view))
}

func (h *QuadHandler) Create(c *gin.Context) {
	var req reqdto.QuadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err, "Invalid request format")
		return
	}
	quad, err := req.ToDomain(0)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	created, err := h.commands.CreateQuad(c.Request.Context(), quad)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromQuad(created))
}

func (h *QuadHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid quad ID")
		return
	}

	var req reqdto.QuadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, err, "Invalid request format")
		return
	}
	quad, err := req.ToDomain(id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	updated, err := h.commands.UpdateQuad(c.Request.Context(), quad)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromQuad(updated))
}

// Delete без ?force=true отвечает 409, если у квадроцикла есть брони.
func (h *QuadHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid quad ID")
		return
	}

	force := false
	if raw := c.Query("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			httperr.BadRequest(c, err, "Invalid force parameter")
			return
		}
	}

	if err := h.commands.DeleteQuad(c.Request.Context(), id, force); err != nil {
		httperr.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *QuadHandler) Links(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		httperr.BadRequest(c, err, "Invalid quad ID")
		return
	}

	links, err := h.queries.LinksByQuad(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromLinks(links))
}
