package api

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// AuthMiddleware validates JWT tokens issued by the platform's auth layer
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Authorization header required",
				Message: "Please provide a valid authorization token",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Invalid authorization format",
				Message: "Authorization header must be in format 'Bearer <token>'",
			})
			c.Abort()
			return
		}

		tokenString := tokenParts[1]

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Server not configured",
				Message: "JWT secret missing",
			})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Invalid token",
				Message: "The provided token is invalid or expired",
			})
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			c.Set("user_id", claims["user_id"])
			c.Set("email", claims["email"])
			if r, ok := claims["role"].(string); ok {
				c.Set("role", r)
			}
		}

		c.Next()
	}
}

// GetUserID extracts the account ID from the JWT token claims
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

// GetUserRole extracts the account role from the JWT token claims
func GetUserRole(c *gin.Context) (models.UserRole, bool) {
	roleVal, exists := c.Get("role")
	if !exists {
		return "", false
	}

	roleStr, ok := roleVal.(string)
	if !ok {
		return "", false
	}
	return models.UserRole(roleStr), true
}

// IsAdminRequest reports whether the caller holds an administrative role
func IsAdminRequest(c *gin.Context) bool {
	role, ok := GetUserRole(c)
	return ok && role.IsAdmin()
}

// AdminMiddleware ensures the caller holds an admin or super_admin role
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdminRequest(c) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Admin access required",
				Message: "This endpoint requires an admin role",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// WebhookAuthMiddleware authenticates payment processor callbacks with a
// shared secret header instead of a JWT.
func WebhookAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
		if secret == "" {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Server not configured",
				Message: "Webhook secret missing",
			})
			c.Abort()
			return
		}

		provided := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Invalid webhook secret",
				Message: "The provided webhook secret does not match",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
