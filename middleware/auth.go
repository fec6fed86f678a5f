package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/missions/config"
	"github.com/studyhub/missions/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// AuthIfEnabled applies AuthRequired only when AUTH_ENABLED is set.
func AuthIfEnabled() gin.HandlerFunc {
	if !config.Get().AuthEnabled {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	return AuthRequired()
}

// AdminRequired lets through only usernames listed in ADMIN_USERNAMES.
// It must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	admins := map[string]bool{}
	for _, name := range config.Get().AdminUsernames {
		admins[strings.ToLower(name)] = true
	}
	return func(ctx *gin.Context) {
		if !admins[strings.ToLower(ctx.GetString(ContextUsernameKey))] {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin privileges required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id != 0
}

// IsAdmin reports whether the authenticated caller is a configured admin.
func IsAdmin(ctx *gin.Context) bool {
	username := ctx.GetString(ContextUsernameKey)
	if username == "" {
		return false
	}
	for _, name := range config.Get().AdminUsernames {
		if strings.EqualFold(name, username) {
			return true
		}
	}
	return false
}
