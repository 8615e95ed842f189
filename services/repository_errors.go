package services

import (
	"errors"

	"github.com/pizza-app/auth-service/repositories"
)

// MapUserWriteError translates repository errors from a user insert or
// update. Unique violations become field validation errors, a missing row
// becomes ErrUserNotFound, anything else is internal.
func MapUserWriteError(err error) error {
	if err == nil {
		return nil
	}
	if dup, ok := repositories.IsDuplicate(err); ok {
		switch dup.Field {
		case "userName":
			return WrapError(ErrUserNameTaken, err)
		case "email":
			return WrapError(ErrEmailTaken, err)
		}
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	return WrapInternal("failed to save user", err)
}
