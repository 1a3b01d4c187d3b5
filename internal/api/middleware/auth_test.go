package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/jwt"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testJWTSecret  = "test-secret-key-for-middleware"
	testCookieName = "thrive_session"
)

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func authRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "authenticated": ok})
	})
	return router
}

func TestAuth_Bearer(t *testing.T) {
	router := authRouter(Auth(testJWTSecret, testCookieName))
	token, err := jwt.GenerateToken(123, testJWTSecret, 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":123`)
}

func TestAuth_SessionCookie(t *testing.T) {
	router := authRouter(Auth(testJWTSecret, testCookieName))
	token, err := jwt.GenerateToken(77, testJWTSecret, 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":77`)
}

func TestAuth_ExpiredSessionCookie(t *testing.T) {
	router := authRouter(Auth(testJWTSecret, testCookieName))
	expired, err := jwt.GenerateToken(77, testJWTSecret, 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: expired})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired or invalid", parseResponse(t, w).Message)

	// 其他名字的 cookie 不被当作会话
	req = httptest.NewRequest("GET", "/test", nil)
	token, _ := jwt.GenerateToken(77, testJWTSecret, 24)
	req.AddCookie(&http.Cookie{Name: "other_session", Value: token})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_Rejections(t *testing.T) {
	router := authRouter(Auth(testJWTSecret, testCookieName))
	wrongSecret, _ := jwt.GenerateToken(123, "different-secret", 24)
	expired, _ := jwt.GenerateToken(123, testJWTSecret, 0)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no bearer prefix", "some-token-without-bearer"},
		{"garbage", "Bearer invalid-token"},
		{"wrong secret", "Bearer " + wrongSecret},
		{"expired", "Bearer " + expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, response.CodeAuthFailed, parseResponse(t, w).Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	router := authRouter(OptionalAuth(testJWTSecret, testCookieName))
	token, err := jwt.GenerateToken(456, testJWTSecret, 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
	req = httptest.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"user_id":456`)
}

type stubUsers map[int64]*model.User

func (s stubUsers) GetByID(id int64) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func TestAdminOnly(t *testing.T) {
	users := stubUsers{
		1: {ID: 1, Role: model.RoleAdmin},
		2: {ID: 2, Role: model.RoleUser},
	}
	router := authRouter(Auth(testJWTSecret, testCookieName), AdminOnly(users))

	tests := []struct {
		name   string
		userID int64
		want   int
	}{
		{"admin", 1, http.StatusOK},
		{"regular user", 2, http.StatusForbidden},
		{"deleted user", 3, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.GenerateToken(tt.userID, testJWTSecret, 24)
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCronAuth(t *testing.T) {
	router := authRouter(CronAuth("cron-secret"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer cron-secret", http.StatusOK},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"prefix only", "Bearer cron", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	// 未配置密钥时一律拒绝
	empty := authRouter(CronAuth(""))
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	empty.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
