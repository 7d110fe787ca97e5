package middleware

import (
	"net/http"
	"strings"

	userRepo "workerlly/database/repository/user"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys populated by AuthMiddleware.
const (
	CtxUserID = "user_id"
	CtxRoles  = "roles"
)

// AuthMiddleware validates the bearer token. A Redis fast path keyed by
// the token hash skips the user lookup for recently-seen tokens; a cache
// miss falls back to the database and repopulates the cache.
func AuthMiddleware(users userRepo.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			c.Abort()
			return
		}

		userIDHex, roles, err := utils.ExtractClaimsFromToken(token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			c.Abort()
			return
		}
		userID, err := primitive.ObjectIDFromHex(userIDHex)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "malformed subject claim")
			c.Abort()
			return
		}

		cacheKey := utils.AuthCachePrefix + utils.HashToken(token)
		client := utils.GetAuthCacheClient()
		if client != nil {
			if cached, err := client.Get(c.Request.Context(), cacheKey).Result(); err == nil && cached == userIDHex {
				c.Set(CtxUserID, userID)
				c.Set(CtxRoles, roles)
				c.Next()
				return
			}
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "unknown user")
			c.Abort()
			return
		}
		if client != nil {
			client.Set(c.Request.Context(), cacheKey, userIDHex, utils.AuthCacheTTL)
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxRoles, user.Roles)
		c.Next()
	}
}

// RequireRole gates a route group on one of the caller's roles.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := c.Get(CtxRoles)
		if ok {
			for _, r := range roles.([]string) {
				if r == role {
					c.Next()
					return
				}
			}
		}
		utils.JSONError(c, http.StatusForbidden, "Forbidden", "missing required role: "+role)
		c.Abort()
	}
}

// UserID returns the authenticated user's id from the gin context.
func UserID(c *gin.Context) primitive.ObjectID {
	if v, ok := c.Get(CtxUserID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// The WebSocket upgrade cannot set headers from browsers; accept the
	// token as a query parameter there.
	return c.Query("token")
}
