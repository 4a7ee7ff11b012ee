package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/readwith/readwith/models"
	"github.com/readwith/readwith/utils"
)

const (
	// ContextUserIDKey stores the authenticated user ID in the Gin context.
	ContextUserIDKey = "user_id"
	// ContextNicknameKey stores the nickname in the Gin context.
	ContextNicknameKey = "nickname"
	// ContextRoleKey stores the role in the Gin context.
	ContextRoleKey = "role"
)

// AccessTokenCookie is the cookie carrying the access token for browser clients.
const AccessTokenCookie = "access_token"

// bearerToken extracts the access token from the Authorization header, falling
// back to the access_token cookie.
func bearerToken(ctx *gin.Context) string {
	if h := ctx.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if v, err := ctx.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// AuthRequired ensures the request carries a valid access token.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString == "" {
			utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "authentication required")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString, utils.TokenAccess)
		if err != nil {
			utils.Fail(ctx, http.StatusUnauthorized, utils.KindUnauthorized, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextNicknameKey, claims.Nickname)
		ctx.Set(ContextRoleKey, claims.Role)
		ctx.Next()
	}
}

// CurrentUserID returns the authenticated user ID from the context.
func CurrentUserID(ctx *gin.Context) uint {
	if v, ok := ctx.Get(ContextUserIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// IsAdmin reports whether the authenticated user holds the admin role.
func IsAdmin(ctx *gin.Context) bool {
	return ctx.GetString(ContextRoleKey) == models.RoleAdmin
}
