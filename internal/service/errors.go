package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrNotVerified        = errors.New("account is not verified")
)

// unknownAccountErr matches both ErrInvalidCredentials and ErrNotFound. Its
// message is the credentials one so callers cannot tell the cases apart.
type unknownAccountErr struct{}

func (unknownAccountErr) Error() string { return ErrInvalidCredentials.Error() }

func (unknownAccountErr) Is(target error) bool {
	return target == ErrInvalidCredentials || target == ErrNotFound
}

var errUnknownAccount error = unknownAccountErr{}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
