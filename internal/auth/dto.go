package auth

import (
	"strings"

	apperrors "github.com/umoc-outing-club/gear-locker/internal"
	"github.com/umoc-outing-club/gear-locker/internal/core/common/validation"
)

// SignInDTO is the transport shape used by the HTTP handler to accept sign-in requests.
type SignInDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d *SignInDTO) Normalize() {
	d.Email = strings.TrimSpace(d.Email)
}

func (d SignInDTO) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).
		Required().
		Matches(validation.EmailPattern, apperrors.ErrCodeInvalidEmail, "email is not a valid address")
	v.Field("password", d.Password).
		Required()
	return v.Validate()
}

func (d RefreshTokenDTO) Validate() *apperrors.AppError {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	return v.Validate()
}
