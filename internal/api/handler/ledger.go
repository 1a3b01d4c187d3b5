package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

type LedgerHandler struct {
	ledger *service.LedgerService
}

func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Summary 积分概览
// GET /api/v1/user/jp
func (h *LedgerHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.ledger.GetSummary(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}

// Transactions 积分流水
// GET /api/v1/user/transactions
func (h *LedgerHandler) Transactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, pageSize := pageParams(c)
	items, total, err := h.ledger.ListTransactions(userID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessPage(c, total, page, pageSize, items)
}

// Deduct 用户消费积分
// POST /api/v1/jp/deduct
func (h *LedgerHandler) Deduct(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.DeductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	txn, err := h.ledger.Spend(c.Request.Context(), userID, model.ActivityKind(req.Activity))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, service.ToTransactionItem(txn))
}

// DailyReward 领取每日奖励
// POST /api/v1/jp/daily-reward
func (h *LedgerHandler) DailyReward(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := h.ledger.ClaimDailyReward(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, resp)
}

// Activities 活动目录
// GET /api/v1/activities
func (h *LedgerHandler) Activities(c *gin.Context) {
	activities, err := h.ledger.ListActivities()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, activities)
}

// UpdateActivity 管理员编辑活动
// PUT /api/v1/admin/activities/:kind
func (h *LedgerHandler) UpdateActivity(c *gin.Context) {
	var req dto.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	activity, err := h.ledger.UpdateActivity(model.ActivityKind(c.Param("kind")), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, activity)
}

// AdminAssign 管理员发放积分
// POST /api/v1/admin/jp/assign
func (h *LedgerHandler) AdminAssign(c *gin.Context) {
	h.adminAdjust(c, h.ledger.AssignJP)
}

// AdminDeduct 管理员扣除积分
// POST /api/v1/admin/jp/deduct
func (h *LedgerHandler) AdminDeduct(c *gin.Context) {
	h.adminAdjust(c, h.ledger.DeductJP)
}

type ledgerOp func(ctx context.Context, tx *gorm.DB, userID int64, kind model.ActivityKind, override *int64) (*model.Transaction, error)

func (h *LedgerHandler) adminAdjust(c *gin.Context, op ledgerOp) {
	var req dto.AdminJPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	txn, err := op(c.Request.Context(), nil, req.UserID, model.ActivityKind(req.Activity), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, service.ToTransactionItem(txn))
}
