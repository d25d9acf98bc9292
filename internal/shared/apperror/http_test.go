package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	t.Run("app error maps directly", func(t *testing.T) {
		httpErr := ToHTTP(ErrNotFound)

		assert.Equal(t, http.StatusNotFound, httpErr.Status)
		assert.Equal(t, CodeNotFound, httpErr.Code)
		assert.Equal(t, "Resource not found", httpErr.Message)
	})

	t.Run("wrapped cause keeps the envelope status", func(t *testing.T) {
		cause := errors.New("write outbox_events: connection reset")
		wrapped := Wrap(cause, CodeInternalError, "Could not record lifecycle event", http.StatusInternalServerError)

		httpErr := ToHTTP(wrapped)
		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
		assert.Equal(t, "Could not record lifecycle event", httpErr.Message)

		assert.ErrorIs(t, wrapped, cause)
		assert.Contains(t, wrapped.Error(), "connection reset")
	})

	t.Run("unknown error never leaks internals", func(t *testing.T) {
		httpErr := ToHTTP(errors.New("pq: relation does not exist"))

		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
		assert.Equal(t, CodeInternalError, httpErr.Code)
		assert.NotContains(t, httpErr.Message, "pq:")
	})
}

func TestMapValidationError_NonValidatorError(t *testing.T) {
	err := MapValidationError(errors.New("unexpected EOF"))

	assert.ErrorIs(t, err, ErrInvalidInput)
	httpErr := ToHTTP(err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, CodeInvalidInput, httpErr.Code)
}
