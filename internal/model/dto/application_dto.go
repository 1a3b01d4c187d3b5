package dto

// SpotlightApplyRequest 申请 Spotlight
type SpotlightApplyRequest struct {
	Headline   string `json:"headline" binding:"required,min=3,max=200"`
	Pitch      string `json:"pitch" binding:"required,max=2000"`
	WebsiteURL string `json:"website_url" binding:"omitempty,url,max=500"`
}

// ProsperityApplyRequest 申请 Prosperity Drop
type ProsperityApplyRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"required,max=5000"`
}

// StatusChangeRequest 管理员修改申请状态
type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=1000"`
}

// ApplicationItem 申请项（Spotlight 与 Prosperity 共用）
type ApplicationItem struct {
	ID          int64       `json:"id"`
	Status      string      `json:"status"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	WebsiteURL  string      `json:"website_url,omitempty"`
	ReviewNote  string      `json:"review_note,omitempty"`
	ActiveFrom  string      `json:"active_from,omitempty"`
	ActiveUntil string      `json:"active_until,omitempty"`
	NextStatus  []string    `json:"next_status,omitempty"`
	Applicant   *PublicUser `json:"applicant,omitempty"`
	CreatedAt   string      `json:"created_at"`
}

// PublicUser 公开用户信息
type PublicUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}
