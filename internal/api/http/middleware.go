package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_chat/internal/auth"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

type TokenParser interface {
	Parse(raw string) (domain.Identity, error)
}

// AuthMiddleware takes the session token from the Authorization header or,
// for websocket clients that cannot set headers, the token query parameter.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var raw string
		if header := ctx.GetHeader("Authorization"); header != "" {
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
				return
			}
			raw = strings.TrimSpace(token)
		} else {
			raw = strings.TrimPrefix(ctx.Query("token"), "Bearer ")
		}
		if raw == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		id, err := tokens.Parse(raw)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx.Request = ctx.Request.WithContext(auth.WithIdentity(ctx.Request.Context(), id))
		ctx.Next()
	}
}

const identityKey = "identity"

// SessionMiddleware resolves the caller through sessions and keeps the
// identity on the gin context for the handlers.
func SessionMiddleware(sessions auth.Provider) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := sessions.CurrentUser(ctx.Request.Context())
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

// currentUser writes a 401 and returns false when the request carries no
// identity.
func currentUser(ctx *gin.Context) (domain.Identity, bool) {
	if v, ok := ctx.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id, true
		}
	}
	writeError(ctx, auth.ErrNoSession)
	return domain.Identity{}, false
}
