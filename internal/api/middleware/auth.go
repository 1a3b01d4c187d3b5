package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/jwt"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
)

// UserLoader 按 ID 读取用户（AdminOnly 用于检查角色）
type UserLoader interface {
	GetByID(id int64) (*model.User, error)
}

// extractToken 先读会话 cookie，再读 Authorization: Bearer
func extractToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token
		}
	}
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth 会话认证中间件
func Auth(jwtSecret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.AuthError(c, "Unauthorized")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(token, jwtSecret)
		if err != nil {
			response.AuthError(c, "Session expired or invalid")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件（不强制要求登录）
func OptionalAuth(jwtSecret, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c, cookieName); token != "" {
			if claims, err := jwt.ParseToken(token, jwtSecret); err == nil {
				c.Set(UserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// AdminOnly 需挂在 Auth 之后；角色从数据库读取，不信任 token
func AdminOnly(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "Unauthorized")
			c.Abort()
			return
		}
		user, err := users.GetByID(userID)
		if err != nil || user.Role != model.RoleAdmin {
			response.PermissionError(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CronAuth 外部调度器使用的共享密钥
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, "")
		if secret == "" || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			response.AuthError(c, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}
