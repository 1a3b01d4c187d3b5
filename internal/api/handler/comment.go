package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List 获取目标的评论
// GET /api/v1/goals/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	goalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	page, pageSize := pageParams(c)
	items, total, err := h.commentService.ListByGoalID(userID, goalID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Create 发表评论
// POST /api/v1/goals/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	goalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	comment, err := h.commentService.Create(userID, goalID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, comment)
}

// Delete 删除评论
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(userID, commentID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, nil)
}
