package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrMissingTokenStr = "missing-token"
	ErrExpiredTokenStr = "expired-token"
	ErrInvalidTokenStr = "invalid-token"
)

const identityKey = "identity"

// RequireAuthMiddleware resolves the caller identity from the token cookie
// (or an Authorization bearer header) and stores it on the gin context.
func RequireAuthMiddleware(provider Provider) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil {
			header := ctx.GetHeader("Authorization")
			token, _ = strings.CutPrefix(header, "Bearer ")
		}
		if token == "" {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}

		identity, err := provider.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
			default:
				ctx.String(http.StatusUnauthorized, ErrInvalidTokenStr)
			}
			ctx.Abort()
			return
		}

		ctx.Set(identityKey, identity)
		ctx.Next()
	}
}

// IdentityFrom pulls the authenticated identity off the gin context.
func IdentityFrom(ctx *gin.Context) (domain.Identity, bool) {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
