package service

import (
	"errors"
	"fmt"

	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
)

// Error categories. Every error returned by this package is one of
// these, a repository not-found sentinel, or a *RemoteError.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("authorization error")
	ErrCapacity     = errors.New("capacity error")
)

var (
	ErrRoomNameRequired     = newError(ErrValidation, "room name is required")
	ErrPasswordRequired     = newError(ErrValidation, "password is required")
	ErrInvalidMaxUsers      = newError(ErrValidation, fmt.Sprintf("max users must be between %d and %d", domain.MinRoomUsers, domain.MaxRoomUsers))
	ErrEmptyMessage         = newError(ErrValidation, "message text is empty")
	ErrMessageTooLong       = newError(ErrValidation, "message text is too long")
	ErrNotImage             = newError(ErrValidation, "file is not an image")
	ErrImageTooLarge        = newError(ErrValidation, "image is too large")
	ErrConfirmationMismatch = newError(ErrValidation, "confirmation text does not match")
	ErrInvalidUserInput     = newError(ErrValidation, "invalid user data")
	ErrWeakPassword         = newError(ErrValidation, "password must be at least 6 characters")
	ErrPasswordTooLong      = newError(ErrValidation, fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))

	ErrIncorrectPassword  = newError(ErrUnauthorized, "incorrect password")
	ErrNotOwner           = newError(ErrUnauthorized, "only the room owner can do this")
	ErrNotMember          = newError(ErrUnauthorized, "not a member of this room")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid email or password")

	ErrRoomFull = newError(ErrCapacity, "room is full")
)

type categorizedError struct {
	category error
	msg      string
}

func newError(category error, msg string) error {
	return &categorizedError{category: category, msg: msg}
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Is(target error) bool { return target == e.category }

// RemoteError wraps a failure returned by the store, the change feed or
// the blob store. Not-found errors from repositories are returned as is.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrRoomNotFound) || errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// StepError reports which step of a multi-step sequence failed. Steps
// that completed before it are not undone.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
