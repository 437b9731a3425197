package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them onto HTTP statuses with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrUserExists         = fmt.Errorf("%w: email or username already registered", ErrConflict)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)

	ErrBookNotFound = fmt.Errorf("%w: book not found", ErrNotFound)
	ErrEmptyQuery   = fmt.Errorf("%w: search query is required", ErrValidation)
	ErrMissingID    = fmt.Errorf("%w: book id is required", ErrValidation)

	ErrListNotFound    = fmt.Errorf("%w: list not found", ErrNotFound)
	ErrListNameTaken   = fmt.Errorf("%w: a list with this name already exists", ErrConflict)
	ErrListNameEmpty   = fmt.Errorf("%w: list name is required", ErrValidation)
	ErrAlreadyInList   = fmt.Errorf("%w: book is already in this list", ErrConflict)
	ErrBookNotInList   = fmt.Errorf("%w: book is not in this list", ErrNotFound)
	ErrInvalidRating   = fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	ErrRatingNotFound  = fmt.Errorf("%w: rating not found", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrEmptyPost       = fmt.Errorf("%w: post content is required", ErrValidation)
)
