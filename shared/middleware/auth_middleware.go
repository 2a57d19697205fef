package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	utils "tenanthub-backend/shared/utils/auth"
)

// AuthMiddleware extracts user information from JWT token and sets it in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Expected Bearer {token}"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			c.Abort()
			return
		}

		organizationID, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid organization ID in token"})
			c.Abort()
			return
		}

		roleID, err := uuid.Parse(claims.RoleID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role ID in token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Set("userEmail", claims.Email)
		c.Set("organizationID", organizationID)
		c.Set("roleID", roleID)

		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from the gin context.
func GetUserID(c *gin.Context) uuid.UUID {
	return c.MustGet("userID").(uuid.UUID)
}

// GetOrganizationID returns the authenticated user's organization from
// the gin context.
func GetOrganizationID(c *gin.Context) uuid.UUID {
	return c.MustGet("organizationID").(uuid.UUID)
}

// GetRoleID returns the authenticated user's role from the gin context.
func GetRoleID(c *gin.Context) uuid.UUID {
	return c.MustGet("roleID").(uuid.UUID)
}
