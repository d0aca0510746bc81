package httperr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/quadrental/internal/domain"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError(domain.ReasonNoQuadsSelected), http.StatusBadRequest},
		{"not found", errors.Wrap(domain.ErrNotFound, "quad 1"), http.StatusNotFound},
		{"conflict", errors.Mark(errors.New("dup"), domain.ErrConflict), http.StatusConflict},
		{"cascade", domain.ErrCascadeConflict, http.StatusConflict},
		{"parent missing", errors.Mark(errors.New("fk"), domain.ErrParentMissing), http.StatusUnprocessableEntity},
		{"timeout", errors.Mark(errors.New("slow"), domain.ErrStorageTimeout), http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := Status(tc.err)
			assert.Equal(t, tc.want, status)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestFromError_ValidationReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	FromError(c, domain.NewValidationError(domain.ReasonMissingHelmetCount))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, c.IsAborted())
	require.Len(t, c.Errors, 1)

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail ValidationDetail `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing helmet count", body.Detail.Reason)
	assert.Equal(t, "Validation failed", body.Error.Message)
}

func TestAbortWithError_RecordsPublicError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	cause := errors.Wrap(domain.ErrNotFound, "quad 7")
	AbortWithError(c, http.StatusNotFound, cause, "Not found", nil)

	require.Len(t, c.Errors, 1)
	recorded := c.Errors.Last()
	assert.True(t, recorded.IsType(gin.ErrorTypePublic))
	assert.True(t, errors.Is(recorded.Err, domain.ErrNotFound))

	meta, ok := recorded.Meta.(Response)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, meta.Status)
	assert.Equal(t, "Not found", meta.Error.Message)
}

func TestAbortWithError_NilPanics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Panics(t, func() { AbortWithError(c, http.StatusBadRequest, nil, "bad", nil) })
}
