// Package httperr приводит ошибки сервиса к единому JSON-ответу.
package httperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// ValidationDetail передаёт клиенту стабильную причину отказа.
type ValidationDetail struct {
	Reason string `json:"reason"`
}

// AbortWithError сохраняет исходную ошибку в c.Errors для access-лога.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(&gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// Status сопоставляет доменную ошибку с HTTP-кодом и сообщением.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrCascadeConflict):
		return http.StatusConflict, "Entity has dependent reservations"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, domain.ErrParentMissing):
		return http.StatusUnprocessableEntity, "Referenced entity does not exist"
	case errors.Is(err, domain.ErrStorageTimeout):
		return http.StatusGatewayTimeout, "Storage timeout"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// FromError прерывает запрос ответом, соответствующим ошибке.
func FromError(c *gin.Context, err error) {
	status, msg := Status(err)

	var detail any
	if reason := domain.ValidationReason(err); reason != "" {
		detail = ValidationDetail{Reason: reason}
	}
	AbortWithError(c, status, err, msg, detail)
}

// BadRequest — ошибка разбора запроса до обращения к сервису.
func BadRequest(c *gin.Context, err error, msg string) {
	AbortWithError(c, http.StatusBadRequest, err, msg, nil)
}
