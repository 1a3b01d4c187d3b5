package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

type ChallengeHandler struct {
	challenges *service.ChallengeService
}

func NewChallengeHandler(challenges *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// Create POST /api/v1/challenges
func (h *ChallengeHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.challenges.Create(userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, item)
}

// List 开放中的挑战
// GET /api/v1/challenges
func (h *ChallengeHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	items, total, err := h.challenges.ListOpen(page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessPage(c, total, page, pageSize, items)
}

// Get GET /api/v1/challenges/:id
func (h *ChallengeHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	// 匿名访问时 viewer 为 0
	viewer, _ := middleware.GetUserID(c)
	item, err := h.challenges.Get(id, viewer)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, item)
}

// Enroll 报名，报名费从参与者转给创建者
// POST /api/v1/challenges/:id/enroll
func (h *ChallengeHandler) Enroll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	item, err := h.challenges.Enroll(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, item)
}

// Enrollments 创建者查看报名
// GET /api/v1/challenges/:id/enrollments
func (h *ChallengeHandler) Enrollments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	items, err := h.challenges.ListEnrollments(userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, items)
}

// Complete 创建者确认参与者完成
// POST /api/v1/challenges/:id/participants/:userId/complete
func (h *ChallengeHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	participantID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	item, err := h.challenges.CompleteParticipant(c.Request.Context(), userID, id, participantID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, item)
}
