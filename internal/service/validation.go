package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

type CreateRoomInput struct {
	Name     string `validate:"required,max=255"`
	Password string `validate:"required"`
	MaxUsers int    `validate:"min=1,max=100"`
}

type RoomSettings struct {
	// Empty keeps the current password.
	Password string
	MaxUsers int `validate:"min=1,max=100"`
}

type registerInput struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// fieldErrors maps struct fields to the error reported when they fail.
type fieldErrors map[string]error

// validateStruct runs the struct tags and returns the first field error
// translated through fields, or fallback.
func validateStruct(v any, fields fieldErrors, fallback error) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if mapped, ok := fields[fe.StructField()]; ok {
				return mapped
			}
		}
	}
	return fallback
}

// checkPasswordLength counts bytes, not runes.
func checkPasswordLength(secret string) error {
	if len(secret) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
