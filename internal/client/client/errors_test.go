package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_IsMapsStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrValidation},
		{http.StatusUnprocessableEntity, ErrValidation},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{StatusCode: tt.status})
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, errors.Is(err, ErrAuthExpired))
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api error 404: not found", (&APIError{StatusCode: 404}).Error())
	assert.Equal(t, "api error 409 (CONFLICT): email taken",
		(&APIError{StatusCode: 409, Code: "CONFLICT", Message: "email taken"}).Error())
}

func TestAPIError_FieldErrors(t *testing.T) {
	e := &APIError{Details: map[string][]string{"email": {"invalid", "too long"}, "x": nil}}
	assert.Equal(t, map[string]string{"email": "invalid"}, e.FieldErrors())
	assert.Nil(t, (&APIError{}).FieldErrors())
}
