// Package forms validates user input before it is sent to the backend.
package forms

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/huntlog/internal/client/api"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 100
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

var errPasswordsDiffer = errors.New("passwords do not match")

func equals(other string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errPasswordsDiffer
		}
		return nil
	}
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	return fromValidation(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Password, validation.Required, validation.Length(MinPasswordLength, 0)),
	))
}

func (f LoginForm) Request() api.LoginRequest {
	return api.LoginRequest{Email: f.Email, Password: f.Password}
}

type RegisterForm struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f RegisterForm) Validate() error {
	return fromValidation(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
		validation.Field(&f.Username, validation.Required, validation.Length(MinUsernameLength, MaxUsernameLength)),
		validation.Field(&f.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&f.ConfirmPassword, validation.Required, validation.By(equals(f.Password))),
	))
}

func (f RegisterForm) Request() api.RegisterRequest {
	return api.RegisterRequest{Email: f.Email, Username: f.Username, Password: f.Password}
}

type ForgotPasswordForm struct {
	Email string `json:"email"`
}

func (f ForgotPasswordForm) Validate() error {
	return fromValidation(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.Email),
	))
}

func (f ForgotPasswordForm) Request() api.ForgotPasswordRequest {
	return api.ForgotPasswordRequest{Email: f.Email}
}

// ResetPasswordForm holds the token from the reset link plus the new password.
type ResetPasswordForm struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f ResetPasswordForm) Validate() error {
	return fromValidation(validation.ValidateStruct(&f,
		validation.Field(&f.Token, validation.Required),
		validation.Field(&f.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&f.ConfirmPassword, validation.Required, validation.By(equals(f.Password))),
	))
}

func (f ResetPasswordForm) Request() api.ResetPasswordRequest {
	return api.ResetPasswordRequest{Token: f.Token, NewPassword: f.Password}
}

type ChangePasswordForm struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f ChangePasswordForm) Validate() error {
	return fromValidation(validation.ValidateStruct(&f,
		validation.Field(&f.CurrentPassword, validation.Required),
		validation.Field(&f.NewPassword, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&f.ConfirmPassword, validation.Required, validation.By(equals(f.NewPassword))),
	))
}

func (f ChangePasswordForm) Request() api.ChangePasswordRequest {
	return api.ChangePasswordRequest{CurrentPassword: f.CurrentPassword, NewPassword: f.NewPassword}
}
