package model

import (
	"time"
)

// ActivityKind 积分活动类型
type ActivityKind string

const (
	ActivityDailyLogin            ActivityKind = "DAILY_LOGIN"
	ActivityStreak7Days           ActivityKind = "STREAK_7_DAYS"
	ActivityStreak30Days          ActivityKind = "STREAK_30_DAYS"
	ActivityGoalCompleted         ActivityKind = "GOAL_COMPLETED"
	ActivityChallengeCompleted    ActivityKind = "CHALLENGE_COMPLETED"
	ActivityChallengeFeeEarned    ActivityKind = "CHALLENGE_FEE_EARNED"
	ActivityChallengeJoiningFee   ActivityKind = "CHALLENGE_JOINING_FEE"
	ActivitySpotlightApplication  ActivityKind = "SPOTLIGHT_APPLICATION"
	ActivityProsperityApplication ActivityKind = "PROSPERITY_APPLICATION"
	ActivityAdminGrant            ActivityKind = "ADMIN_GRANT"
	ActivityAdminPenalty          ActivityKind = "ADMIN_PENALTY"
)

type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Activity 积分活动目录，运行时只允许管理员修改
type Activity struct {
	ID        int64        `gorm:"primaryKey" json:"id"`
	Kind      ActivityKind `gorm:"size:50;uniqueIndex;not null" json:"kind"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	JPAmount  int64        `gorm:"column:jp_amount;not null" json:"jp_amount"`
	Direction Direction    `gorm:"size:10;not null" json:"direction"`
	Active    bool         `gorm:"not null" json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// DefaultActivities 初始积分目录；手续费类活动的金额会在转账时被实际费用覆盖
func DefaultActivities() []Activity {
	return []Activity{
		{Kind: ActivityDailyLogin, Name: "Daily login", JPAmount: 10, Direction: DirectionCredit, Active: true},
		{Kind: ActivityStreak7Days, Name: "7 day streak", JPAmount: 50, Direction: DirectionCredit, Active: true},
		{Kind: ActivityStreak30Days, Name: "30 day streak", JPAmount: 200, Direction: DirectionCredit, Active: true},
		{Kind: ActivityGoalCompleted, Name: "Goal completed", JPAmount: 100, Direction: DirectionCredit, Active: true},
		{Kind: ActivityChallengeCompleted, Name: "Challenge completed", JPAmount: 150, Direction: DirectionCredit, Active: true},
		{Kind: ActivityChallengeFeeEarned, Name: "Challenge fee earned", JPAmount: 1, Direction: DirectionCredit, Active: true},
		{Kind: ActivityChallengeJoiningFee, Name: "Challenge joining fee", JPAmount: 1, Direction: DirectionDebit, Active: true},
		{Kind: ActivitySpotlightApplication, Name: "Spotlight application", JPAmount: 500, Direction: DirectionDebit, Active: true},
		{Kind: ActivityProsperityApplication, Name: "Prosperity drop application", JPAmount: 1000, Direction: DirectionDebit, Active: true},
		{Kind: ActivityAdminGrant, Name: "Admin grant", JPAmount: 100, Direction: DirectionCredit, Active: true},
		{Kind: ActivityAdminPenalty, Name: "Admin penalty", JPAmount: 100, Direction: DirectionDebit, Active: true},
	}
}
