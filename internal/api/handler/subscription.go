package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/payment"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

const maxWebhookBody = 1 << 20

type SubscriptionHandler struct {
	subs *service.SubscriptionService
}

func NewSubscriptionHandler(subs *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// Plans GET /api/v1/subscription/plans
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	plans, err := h.subs.ListPlans()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, plans)
}

// Current GET /api/v1/subscription
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	info, err := h.subs.GetCurrent(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, info)
}

// Checkout 发起订阅，返回网关授权链接
// POST /api/v1/subscription
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.subs.Checkout(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, resp)
}

// Cancel 取消订阅；网关拒绝时返回 502，本地状态不变
// POST /api/v1/subscription/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	info, err := h.subs.Cancel(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, info)
}

// Purchase 一次性购买
// POST /api/v1/purchases
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.subs.Purchase(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, resp)
}

// Purchases GET /api/v1/purchases
func (h *SubscriptionHandler) Purchases(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	purchases, err := h.subs.ListPurchases(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, purchases)
}

// Webhook 支付网关回调，签名覆盖原始请求体
// POST /api/v1/webhooks/payment
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ParamError(c, "cannot read body")
		return
	}

	result, err := h.subs.HandleWebhook(c.Request.Context(),
		c.GetHeader(payment.HeaderTimestamp),
		c.GetHeader(payment.HeaderSignature),
		body,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"result": result})
}
