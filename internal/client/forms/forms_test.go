package forms

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/huntlog/internal/client/client"
)

type validatable interface{ Validate() error }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, client.ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	return verr.Fields
}

func TestForms_Valid(t *testing.T) {
	cases := map[string]validatable{
		"login":    LoginForm{Email: "a@b.com", Password: "secret123"},
		"register": RegisterForm{Email: "a@b.com", Username: "alice", Password: "secret123", ConfirmPassword: "secret123"},
		"forgot":   ForgotPasswordForm{Email: "a@b.com"},
		"reset":    ResetPasswordForm{Token: "tok", Password: "secret123", ConfirmPassword: "secret123"},
		"change":   ChangePasswordForm{CurrentPassword: "x", NewPassword: "secret123", ConfirmPassword: "secret123"},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, f.Validate())
		})
	}
}

func TestForms_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		form   validatable
		fields []string
	}{
		{
			name:   "login empty",
			form:   LoginForm{},
			fields: []string{"email", "password"},
		},
		{
			name:   "login bad email and short password",
			form:   LoginForm{Email: "not-an-email", Password: "short"},
			fields: []string{"email", "password"},
		},
		{
			name:   "register short username and mismatch",
			form:   RegisterForm{Email: "a@b.com", Username: "al", Password: "secret123", ConfirmPassword: "secret124"},
			fields: []string{"username", "confirmPassword"},
		},
		{
			name:   "register overlong password",
			form:   RegisterForm{Email: "a@b.com", Username: "alice", Password: strings.Repeat("p", 101), ConfirmPassword: strings.Repeat("p", 101)},
			fields: []string{"password"},
		},
		{
			name:   "register overlong username",
			form:   RegisterForm{Email: "a@b.com", Username: strings.Repeat("u", 51), Password: "secret123", ConfirmPassword: "secret123"},
			fields: []string{"username"},
		},
		{
			name:   "forgot bad email",
			form:   ForgotPasswordForm{Email: "a@"},
			fields: []string{"email"},
		},
		{
			name:   "reset missing token",
			form:   ResetPasswordForm{Password: "secret123", ConfirmPassword: "secret123"},
			fields: []string{"token"},
		},
		{
			name:   "change mismatch",
			form:   ChangePasswordForm{CurrentPassword: "x", NewPassword: "secret123", ConfirmPassword: "other"},
			fields: []string{"confirmPassword"},
		},
		{
			name:   "change missing current",
			form:   ChangePasswordForm{NewPassword: "secret123", ConfirmPassword: "secret123"},
			fields: []string{"currentPassword"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := fieldErrors(t, tt.form.Validate())
			assert.Len(t, fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestRegisterForm_MismatchMessage(t *testing.T) {
	err := RegisterForm{Email: "a@b.com", Username: "alice", Password: "secret123", ConfirmPassword: "nope"}.Validate()
	fields := fieldErrors(t, err)
	assert.Equal(t, "passwords do not match", fields["confirmPassword"])
	assert.Contains(t, err.Error(), "confirmPassword: passwords do not match")
}

func TestForms_Requests(t *testing.T) {
	assert.Equal(t, "new", ResetPasswordForm{Token: "t", Password: "new"}.Request().NewPassword)
	assert.Equal(t, "a@b.com", LoginForm{Email: "a@b.com"}.Request().Email)
	r := RegisterForm{Email: "e", Username: "u", Password: "p", ConfirmPassword: "p"}.Request()
	assert.Equal(t, "u", r.Username)
	c := ChangePasswordForm{CurrentPassword: "c", NewPassword: "n"}.Request()
	assert.Equal(t, "c", c.CurrentPassword)
	assert.Equal(t, "n", c.NewPassword)
}

func TestFromAPIError(t *testing.T) {
	apiErr := &client.APIError{StatusCode: 422, Details: map[string][]string{"email": {"already registered"}}}
	err := FromAPIError(apiErr)
	assert.Equal(t, map[string]string{"email": "already registered"}, fieldErrors(t, err))

	conflict := &client.APIError{StatusCode: 409}
	assert.Same(t, conflict, FromAPIError(conflict))

	plain := errors.New("x")
	assert.Equal(t, plain, FromAPIError(plain))

	noDetails := &client.APIError{StatusCode: 400}
	assert.Same(t, noDetails, FromAPIError(noDetails))
}
