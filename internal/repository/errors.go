package repository

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMembershipExists    = errors.New("membership already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserEmailExists     = errors.New("user with email already exists")
	ErrInvalidMessageState = errors.New("stored message is invalid")
)
