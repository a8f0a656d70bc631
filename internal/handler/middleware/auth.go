package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"sharpii-ledger/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxAccountIDKey = "account_id"
	ctxRoleKey      = "caller_role"
)

type AuthMiddleware struct {
	tokens *jwt.Service
}

func NewAuthMiddleware(tokens *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ctxAccountIDKey, claims.AccountID)
		c.Set(ctxRoleKey, jwt.Role(claims.Role))
		c.Set("jwt_claims", map[string]any{
			"account_id": claims.AccountID.String(),
			"role":       claims.Role,
		})
		c.Next()
	}
}

// RequireRole gates mutating endpoints to the task pipeline and operators.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			c.Abort()
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	accountID, exists := c.Get(ctxAccountIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := accountID.(uuid.UUID)
	return id, ok
}

func GetRole(c *gin.Context) (jwt.Role, bool) {
	role, exists := c.Get(ctxRoleKey)
	if !exists {
		return "", false
	}

	r, ok := role.(jwt.Role)
	return r, ok
}

// CanAccessAccount reports whether the caller may touch the given account.
// Account tokens are scoped to their own ledger; service and admin tokens
// cover every account.
func CanAccessAccount(c *gin.Context, accountID uuid.UUID) bool {
	role, ok := GetRole(c)
	if !ok {
		return false
	}
	if role == jwt.RoleService || role == jwt.RoleAdmin {
		return true
	}
	callerID, ok := GetAccountID(c)
	return ok && callerID == accountID
}
