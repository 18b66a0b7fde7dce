package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/huntlog/internal/client/client"
)

// ValidationError carries one message per rejected field, keyed by the
// field's JSON name. It matches client.ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == client.ErrValidation
}

// fromValidation converts ozzo-validation output into a *ValidationError.
// Internal rule errors are returned unchanged.
func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for name, ferr := range verrs {
		if ferr != nil {
			fields[name] = ferr.Error()
		}
	}
	return &ValidationError{Fields: fields}
}

// FromAPIError lifts a server-side field rejection (400/422 with details)
// into a *ValidationError so it can be shown next to the form fields. Any
// other error is returned unchanged.
func FromAPIError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || !errors.Is(apiErr, client.ErrValidation) {
		return err
	}
	fields := apiErr.FieldErrors()
	if len(fields) == 0 {
		return err
	}
	return &ValidationError{Fields: fields}
}
