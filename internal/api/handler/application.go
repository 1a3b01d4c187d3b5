package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

// ApplicationHandler Spotlight 与 Prosperity Drop 申请
type ApplicationHandler struct {
	apps *service.ApplicationService
}

func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// ApplySpotlight POST /api/v1/spotlight
func (h *ApplicationHandler) ApplySpotlight(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.SpotlightApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.apps.ApplySpotlight(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, item)
}

// MySpotlights GET /api/v1/spotlight/mine
func (h *ApplicationHandler) MySpotlights(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.apps.ListMySpotlights(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, items)
}

// ActiveSpotlights 当前展示中的 Spotlight（公开）
// GET /api/v1/spotlight/active
func (h *ApplicationHandler) ActiveSpotlights(c *gin.Context) {
	items, err := h.apps.ListActiveSpotlights()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, items)
}

// AdminListSpotlights GET /api/v1/admin/spotlight?status=
func (h *ApplicationHandler) AdminListSpotlights(c *gin.Context) {
	page, pageSize := pageParams(c)
	items, total, err := h.apps.ListSpotlights(c.Query("status"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessPage(c, total, page, pageSize, items)
}

// ChangeSpotlightStatus PUT /api/v1/admin/spotlight/:id/status
func (h *ApplicationHandler) ChangeSpotlightStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.apps.ChangeSpotlightStatus(c.Request.Context(), id, req.Status, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, item)
}

// ApplyProsperity POST /api/v1/prosperity
func (h *ApplicationHandler) ApplyProsperity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ProsperityApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.apps.ApplyProsperity(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, item)
}

// MyProsperity GET /api/v1/prosperity/mine
func (h *ApplicationHandler) MyProsperity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.apps.ListMyProsperity(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, items)
}

// AdminListProsperity GET /api/v1/admin/prosperity?status=
func (h *ApplicationHandler) AdminListProsperity(c *gin.Context) {
	page, pageSize := pageParams(c)
	items, total, err := h.apps.ListProsperity(c.Query("status"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessPage(c, total, page, pageSize, items)
}

// ChangeProsperityStatus PUT /api/v1/admin/prosperity/:id/status
func (h *ApplicationHandler) ChangeProsperityStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.apps.ChangeProsperityStatus(c.Request.Context(), id, req.Status, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, item)
}
