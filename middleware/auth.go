package middleware

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"pet-adoption-api/config"
	"pet-adoption-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates JWT token
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// Check Bearer prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		// Parse token
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Get claims
		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		// Check if user still exists and is not banned
		var user models.User
		if err := config.DB.Where("user_id = ? AND delete_at IS NULL", claims.UserID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}
		if user.Status == "banned" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// RequireShelterRole checks that the authenticated user is a member of
// the shelter named by the :shelterID path parameter, with at least one
// of the given roles. The matched membership is stored in the context.
func RequireShelterRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "User not found in context"})
			c.Abort()
			return
		}

		shelterID, err := strconv.Atoi(c.Param("shelterID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shelter ID"})
			c.Abort()
			return
		}

		var member models.ShelterMember
		if err := config.DB.Where("shelter_id = ? AND user_id = ?", shelterID, userID.(int)).
			First(&member).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this shelter"})
			c.Abort()
			return
		}

		allowed := len(roles) == 0
		for _, role := range roles {
			if member.HasRole(role) {
				allowed = true
				break
			}
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Set("shelterID", shelterID)
		c.Set("shelterMember", &member)

		c.Next()
	}
}
