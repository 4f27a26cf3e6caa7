package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/token"
)

const claimsKey = "claims"

var (
	ErrMissingToken  = errors.New("missing authorization header")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingClaims = errors.New("claims not found in context")
)

// RequireAuth validates the bearer access token: signature, expiry and the
// revocation list. Every protected route sits behind it.
func RequireAuth(manager *token.Manager, tokens repository.TokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, ErrMissingToken.Error(), "MISSING_TOKEN")
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		claims, err := manager.ValidateAccessToken(tokenStr)
		if err != nil {
			abortUnauthorized(c, ErrInvalidToken.Error(), "INVALID_TOKEN")
			return
		}

		revoked, err := tokens.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
				"code":  "INTERNAL_ERROR",
			})
			c.Abort()
			return
		}
		if revoked {
			abortUnauthorized(c, ErrInvalidToken.Error(), "TOKEN_REVOKED")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireFresh only admits access tokens minted from a credential login,
// never ones obtained through a refresh. Must run after RequireAuth.
func RequireFresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaimsFromContext(c)
		if err != nil || !claims.Fresh {
			abortUnauthorized(c, "fresh token required", "FRESH_TOKEN_REQUIRED")
			return
		}
		c.Next()
	}
}

// RequireAdmin admits administrators only. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaimsFromContext(c)
		if err != nil || !claims.IsAdministrator {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin admits only the single designated super-admin account.
// Must run after RequireAuth.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaimsFromContext(c)
		if err != nil || !claims.SuperAdmin {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// GetClaimsFromContext returns the validated claims set by RequireAuth.
func GetClaimsFromContext(c *gin.Context) (*token.SessionClaims, error) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	claims, ok := value.(*token.SessionClaims)
	if !ok {
		return nil, errors.New("invalid claims type in context")
	}
	return claims, nil
}

// GetUserIDFromContext returns the caller's user id from the validated
// claims.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claims, err := GetClaimsFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID()
}

func abortUnauthorized(c *gin.Context, message, code string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
	c.Abort()
}

func abortForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"error": "not allowed",
		"code":  "FORBIDDEN",
	})
	c.Abort()
}
