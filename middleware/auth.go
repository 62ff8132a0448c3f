package middleware

import (
	"net/http"

	"claims-intake-platform/utils"

	"github.com/gin-gonic/gin"
)

// RequireAuth validates the bearer token and stores the claims in the
// request context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"unauthorized", "Authentication token is required", nil)
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"invalid_token", "Authentication token is invalid or expired", nil)
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole gates a route to specific roles. Must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		utils.RespondWithError(c, http.StatusForbidden,
			"forbidden", "Insufficient permissions for this operation", nil)
		c.Abort()
	}
}

// GetClaims returns the validated token claims from the request context
func GetClaims(c *gin.Context) *utils.Claims {
	if v, exists := c.Get("claims"); exists {
		if claims, ok := v.(*utils.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetRole returns the authenticated user's role, empty when unauthenticated
func GetRole(c *gin.Context) string {
	if v, exists := c.Get("role"); exists {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}
