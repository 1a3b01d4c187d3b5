package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// setSession 写入 HttpOnly 会话 cookie；maxAge < 0 表示删除
func (h *AuthHandler) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Session.CookieName, token, maxAge, "/", h.cfg.Session.Domain, h.cfg.Session.Secure, true)
}

func (h *AuthHandler) startSession(c *gin.Context, resp *dto.LoginResponse) {
	h.setSession(c, resp.Token, h.cfg.JWT.ExpireHours*3600)
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, resp)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.startSession(c, resp)
	response.Success(c, resp)
}

// Logout 清除会话
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSession(c, "", -1)
	response.Success(c, nil)
}

// VerifyEmail 验证邮箱
// POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.VerifyEmail(req.Code)
	if err != nil {
		writeError(c, err)
		return
	}

	h.startSession(c, resp)
	response.Success(c, resp)
}

// GithubAuth 返回 GitHub 授权地址
// GET /api/v1/auth/github?return_to=/groups
func (h *AuthHandler) GithubAuth(c *gin.Context) {
	url, err := h.authService.GithubAuthURL(c.Request.Context(), c.Query("return_to"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.OAuthURLResponse{URL: url})
}

// GithubCallback GitHub 回调，写入会话后跳回站内页面
// GET /api/v1/auth/github/callback
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.ParamError(c, "missing code")
		return
	}

	resp, returnTo, err := h.authService.GithubCallback(c.Request.Context(), code, c.Query("state"))
	if err != nil {
		writeError(c, err)
		return
	}

	h.startSession(c, resp)
	c.Redirect(http.StatusFound, h.cfg.Server.BaseURL+returnTo)
}
