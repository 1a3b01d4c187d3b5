package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess             = 0
	CodeParamError          = 1000
	CodeAuthFailed          = 1001
	CodePermissionDenied    = 1002
	CodeResourceNotFound    = 1003
	CodeInsufficientBalance = 1004
	CodeDuplicateAction     = 1005
	CodeIllegalTransition   = 1006
	CodeRateLimited         = 1007
	CodeServerError         = 5000
	CodeGatewayError        = 5002
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeParamError:          "Invalid request",
	CodeAuthFailed:          "Unauthorized",
	CodePermissionDenied:    "Forbidden",
	CodeResourceNotFound:    "Not found",
	CodeInsufficientBalance: "Insufficient JP",
	CodeDuplicateAction:     "Duplicate action",
	CodeIllegalTransition:   "Invalid status transition",
	CodeRateLimited:         "Too many requests",
	CodeServerError:         "Internal server error",
	CodeGatewayError:        "Payment gateway error",
}

// 错误码对应的 HTTP 状态
var codeStatus = map[int]int{
	CodeParamError:          http.StatusBadRequest,
	CodeAuthFailed:          http.StatusUnauthorized,
	CodePermissionDenied:    http.StatusForbidden,
	CodeResourceNotFound:    http.StatusNotFound,
	CodeInsufficientBalance: http.StatusBadRequest,
	CodeDuplicateAction:     http.StatusConflict,
	CodeIllegalTransition:   http.StatusBadRequest,
	CodeRateLimited:         http.StatusTooManyRequests,
	CodeServerError:         http.StatusInternalServerError,
	CodeGatewayError:        http.StatusBadGateway,
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageData 分页数据结构
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Created 资源创建成功 (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data: PageData{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Items:    items,
		},
	})
}

// StatusFor 错误码对应的 HTTP 状态，未知错误码按 500 处理
func StatusFor(code int) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(StatusFor(code), Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// InsufficientBalanceError 积分不足
func InsufficientBalanceError(c *gin.Context, message string) {
	Error(c, CodeInsufficientBalance, message)
}

// DuplicateError 重复操作
func DuplicateError(c *gin.Context, message string) {
	Error(c, CodeDuplicateAction, message)
}

// TransitionError 非法状态流转
func TransitionError(c *gin.Context, message string) {
	Error(c, CodeIllegalTransition, message)
}

// GatewayError 支付网关调用失败
func GatewayError(c *gin.Context, message string) {
	Error(c, CodeGatewayError, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}
