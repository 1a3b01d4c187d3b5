package dto

// CreateGroupRequest 创建小组
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// AddMemberRequest 添加成员
type AddMemberRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=ADMIN USER"`
}

// UpdateNotesRequest 更新小组共享笔记
type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=10000"`
}

// UpsertGoalRequest 设置本周期目标
type UpsertGoalRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateGoalStatusRequest 更新目标状态
type UpdateGoalStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_PROGRESS COMPLETED MISSED"`
}

// CreateCommentRequest 评论目标
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=500"`
}

// GroupItem 小组列表项
type GroupItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creator_id"`
	CreatedAt   string `json:"created_at"`
}

// GroupDetail 小组详情
type GroupDetail struct {
	GroupItem
	Notes   string        `json:"notes"`
	MyRole  string        `json:"my_role"`
	Cycle   *CycleItem    `json:"cycle,omitempty"`
	Members []*MemberItem `json:"members"`
}

// CycleItem 周期
type CycleItem struct {
	ID        int64  `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

// MemberItem 成员
type MemberItem struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GoalItem 目标
type GoalItem struct {
	ID          int64       `json:"id"`
	CycleID     int64       `json:"cycle_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Member      *PublicUser `json:"member,omitempty"`
	UpdatedAt   string      `json:"updated_at"`
}

// CommentItem 评论
type CommentItem struct {
	ID        int64       `json:"id"`
	Author    *PublicUser `json:"author"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
}

// RepeatCycleResponse 重复周期结果
type RepeatCycleResponse struct {
	Cycle           *CycleItem `json:"cycle"`
	GoalsDeleted    int64      `json:"goals_deleted"`
	CommentsDeleted int64      `json:"comments_deleted"`
}
