package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrValidation marks field-level rejections (400/422).
	ErrValidation = errors.New("validation failed")
	// ErrAuthExpired means a 401 could not be resolved by a token refresh;
	// the session has been torn down.
	ErrAuthExpired = errors.New("session expired")
	// ErrUnauthorized is a plain 401 surfaced to the caller.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	// ErrConflict is returned for 409, e.g. a duplicate email on registration.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable covers network failures and 5xx responses.
	ErrUnavailable = errors.New("server unavailable")
)

// APIError is a non-2xx response. The body shape is
// {"message": ..., "code": ..., "details": {"field": ["msg", ...]}}.
type APIError struct {
	StatusCode int                 `json:"-"`
	Code       string              `json:"code,omitempty"`
	Message    string              `json:"message,omitempty"`
	Details    map[string][]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(http.StatusText(e.StatusCode))
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

// Is maps the status code onto the package sentinels so callers can use
// errors.Is(err, client.ErrConflict) and friends.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// FieldErrors flattens Details to the first message per field.
func (e *APIError) FieldErrors() map[string]string {
	if len(e.Details) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Details))
	for field, msgs := range e.Details {
		if len(msgs) > 0 {
			out[field] = msgs[0]
		}
	}
	return out
}
