package routes

import (
	"net/http"
	"time"

	"claims-intake-platform/services"
	"claims-intake-platform/utils"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HandleLogin authenticates an operator and returns a bearer token
func HandleLogin(userService *services.UserService, jwtSecret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest,
				"invalid_request", "Username and password are required", nil)
			return
		}

		user, err := userService.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"invalid_credentials", "Invalid username or password", nil)
			return
		}

		token, err := utils.GenerateJWT(user.ID.Hex(), user.Username, user.Role, jwtSecret, tokenTTL)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError,
				"token_error", "Failed to issue token", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":       user.ID.Hex(),
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}
