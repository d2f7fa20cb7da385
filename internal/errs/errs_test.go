package errs

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusUnwraps(t *testing.T) {
	err := fmt.Errorf("toggle: %w", NewValidationError("bad widget"))
	status, code, msg := Status(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", code)
	assert.Equal(t, "bad widget", msg)

	status, _, _ = Status(NewForbiddenError("no access"))
	assert.Equal(t, http.StatusForbidden, status)

	status, _, msg = Status(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "An unexpected error occurred", msg)
}

func TestHandleError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(nil, rec, NewUnauthorizedError("login required"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":"unauthorized","message":"login required"}`, rec.Body.String())
}
