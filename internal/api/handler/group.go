package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

// GroupHandler 互助小组
type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create POST /api/v1/groups
func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.groups.Create(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, detail)
}

// ListMine GET /api/v1/groups
func (h *GroupHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.groups.ListMine(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, items)
}

// Detail GET /api/v1/groups/:id
func (h *GroupHandler) Detail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.groups.Detail(userID, groupID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, detail)
}

// AddMember POST /api/v1/groups/:id/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	member, err := h.groups.AddMember(userID, groupID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, member)
}

// RemoveMember DELETE /api/v1/groups/:id/members/:userId
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	memberID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.groups.RemoveMember(userID, groupID, memberID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// UpdateNotes PUT /api/v1/groups/:id/notes
func (h *GroupHandler) UpdateNotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.groups.UpdateNotes(userID, groupID, req.Notes); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// UpsertGoal PUT /api/v1/groups/:id/goal
func (h *GroupHandler) UpsertGoal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.UpsertGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	goal, err := h.groups.UpsertGoal(userID, groupID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, goal)
}

// ListGoals GET /api/v1/groups/:id/goals
func (h *GroupHandler) ListGoals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	goals, err := h.groups.ListGoals(userID, groupID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, goals)
}

// UpdateGoalStatus PUT /api/v1/goals/:id/status
func (h *GroupHandler) UpdateGoalStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	goalID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateGoalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	goal, err := h.groups.UpdateGoalStatus(c.Request.Context(), userID, goalID, model.GoalStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, goal)
}

// RepeatCycle 清空本周期并顺延一个月（仅管理员）
// POST /api/v1/groups/:id/cycle/repeat
func (h *GroupHandler) RepeatCycle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.groups.RepeatCycle(c.Request.Context(), userID, groupID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, resp)
}
