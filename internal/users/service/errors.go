package service

import (
	"errors"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
)

var (
	// ErrValidationFailed is wrapped by *domain.ValidationError, which carries
	// the per-field reasons.
	ErrValidationFailed = domain.ErrValidationFailed

	ErrUsernameConflict = errors.New("username already taken")
	ErrNotFound         = errors.New("user not found")

	// ErrUnauthorized covers bad credentials and unusable tokens alike.
	ErrUnauthorized = errors.New("unauthorized")

	ErrForbidden = errors.New("forbidden")
)
