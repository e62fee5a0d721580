package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_chat/internal/auth"
	"github.com/immxrtalbeast/axenix_chat/internal/blob"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/internal/service"
)

// statusFor maps service and repository errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUserEmailExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCapacity):
		return http.StatusConflict
	}

	var re *service.RemoteError
	if errors.As(err, &re) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// publicMessage is the text shown to clients. Server-side failures are
// reduced to their status text.
func publicMessage(err error) string {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func writeError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = ctx.Error(err)
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": publicMessage(err)})
}
