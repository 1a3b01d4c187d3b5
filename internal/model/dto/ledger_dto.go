package dto

// JPSummary 积分概览
type JPSummary struct {
	Balance     int64  `json:"balance"`
	Earned      int64  `json:"earned"`
	Spent       int64  `json:"spent"`
	LoginStreak int    `json:"login_streak"`
	LastClaimAt string `json:"last_claim_at,omitempty"`
}

// TransactionItem 积分流水
type TransactionItem struct {
	ID           int64  `json:"id"`
	Activity     string `json:"activity"`
	Direction    string `json:"direction"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	Reference    string `json:"reference,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// DeductRequest 用户消费积分
type DeductRequest struct {
	Activity string `json:"activity" binding:"required"`
}

// AdminJPRequest 管理员调整积分，Amount 为空时使用目录金额
type AdminJPRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Activity string `json:"activity" binding:"required"`
	Amount   *int64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
}

// DailyRewardResponse 每日奖励结果
type DailyRewardResponse struct {
	Streak       int                `json:"streak"`
	Transactions []*TransactionItem `json:"transactions"`
	Balance      int64              `json:"balance"`
}

// UpdateActivityRequest 管理员编辑活动目录
type UpdateActivityRequest struct {
	JPAmount *int64 `json:"jp_amount,omitempty" binding:"omitempty,gt=0"`
	Active   *bool  `json:"active,omitempty"`
}
