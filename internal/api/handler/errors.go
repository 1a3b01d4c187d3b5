package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/cron"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/fsm"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

var errorLog = logger.Component("http")

type errorMapping struct {
	err  error
	code int
}

// 业务错误到响应码的映射，按顺序匹配
var errorMappings = []errorMapping{
	{service.ErrInsufficientBalance, response.CodeInsufficientBalance},
	{fsm.ErrIllegalTransition, response.CodeIllegalTransition},
	{fsm.ErrSameState, response.CodeIllegalTransition},
	{service.ErrGatewayFailed, response.CodeGatewayError},

	{service.ErrInvalidCredentials, response.CodeAuthFailed},
	{service.ErrEmailNotVerified, response.CodeAuthFailed},
	{service.ErrInvalidSignature, response.CodeAuthFailed},

	{service.ErrNotGroupMember, response.CodePermissionDenied},
	{service.ErrNotGroupAdmin, response.CodePermissionDenied},
	{service.ErrGoalPermission, response.CodePermissionDenied},
	{service.ErrChallengePermission, response.CodePermissionDenied},
	{service.ErrCommentPermission, response.CodePermissionDenied},

	{service.ErrUserNotFound, response.CodeResourceNotFound},
	{service.ErrActivityNotFound, response.CodeResourceNotFound},
	{service.ErrApplicationNotFound, response.CodeResourceNotFound},
	{service.ErrGroupNotFound, response.CodeResourceNotFound},
	{service.ErrCycleNotFound, response.CodeResourceNotFound},
	{service.ErrMemberNotFound, response.CodeResourceNotFound},
	{service.ErrGoalNotFound, response.CodeResourceNotFound},
	{service.ErrCommentNotFound, response.CodeResourceNotFound},
	{service.ErrChallengeNotFound, response.CodeResourceNotFound},
	{service.ErrEnrollmentNotFound, response.CodeResourceNotFound},
	{service.ErrPlanNotFound, response.CodeResourceNotFound},
	{service.ErrSubscriptionNotFound, response.CodeResourceNotFound},
	{service.ErrPurchaseNotFound, response.CodeResourceNotFound},
	{service.ErrNotificationNotFound, response.CodeResourceNotFound},
	{cron.ErrUnknownJob, response.CodeResourceNotFound},

	{service.ErrEmailExists, response.CodeDuplicateAction},
	{service.ErrUsernameExists, response.CodeDuplicateAction},
	{service.ErrOpenApplication, response.CodeDuplicateAction},
	{service.ErrStatusConflict, response.CodeDuplicateAction},
	{service.ErrAlreadyClaimed, response.CodeDuplicateAction},
	{service.ErrAlreadyMember, response.CodeDuplicateAction},
	{service.ErrAlreadyEnrolled, response.CodeDuplicateAction},
	{service.ErrAlreadyCompleted, response.CodeDuplicateAction},
	{service.ErrSubscriptionExists, response.CodeDuplicateAction},

	{service.ErrActivityDirection, response.CodeParamError},
	{service.ErrActivityNotAllowed, response.CodeParamError},
	{service.ErrInvalidAmount, response.CodeParamError},
	{service.ErrSelfTransfer, response.CodeParamError},
	{service.ErrUnknownStatus, response.CodeParamError},
	{service.ErrRemoveCreator, response.CodeParamError},
	{service.ErrGoalCycleClosed, response.CodeParamError},
	{service.ErrChallengeDates, response.CodeParamError},
	{service.ErrChallengeClosed, response.CodeParamError},
	{service.ErrCreatorEnroll, response.CodeParamError},
	{service.ErrNotRecurring, response.CodeParamError},
	{service.ErrInvalidPayload, response.CodeParamError},
	{service.ErrInvalidVerifyCode, response.CodeParamError},
	{service.ErrInvalidOAuthState, response.CodeParamError},
	{service.ErrOAuthDisabled, response.CodeParamError},
	{service.ErrStorageDisabled, response.CodeParamError},
	{service.ErrFileTooLarge, response.CodeParamError},
	{service.ErrFileType, response.CodeParamError},
}

// writeError 统一错误出口；未识别的错误记日志并返回 500
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := err.Error()
			if m.code == response.CodeInsufficientBalance {
				msg = service.ErrInsufficientBalance.Error()
			}
			response.Error(c, m.code, msg)
			return
		}
	}

	_ = c.Error(err)
	errorLog.WithError(err).WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("unhandled error")
	response.ServerError(c, "")
}

// currentUser 取登录用户，未登录时写 401 并返回 false
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
	}
	return userID, ok
}

// paramID 解析路径参数中的 ID
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pageParams 读取分页参数
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
