package model

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	TierFree    = "FREE"
	TierPremium = "PREMIUM"
)

type User struct {
	ID                    int64      `gorm:"primaryKey" json:"id"`
	Username              string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email                 *string    `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	PasswordHash          *string    `gorm:"size:255" json:"-"`
	AvatarURL             string     `gorm:"size:500" json:"avatar_url"`
	Bio                   string     `gorm:"type:text" json:"bio"`
	GithubID              *string    `gorm:"column:github_id;size:50;uniqueIndex" json:"-"`
	Role                  string     `gorm:"size:20;not null;default:USER" json:"role"`
	MembershipTier        string     `gorm:"size:20;not null;default:FREE" json:"membership_tier"`
	JPBalance             int64      `gorm:"column:jp_balance;not null;default:0" json:"jp_balance"`
	JPEarned              int64      `gorm:"column:jp_earned;not null;default:0" json:"jp_earned"`
	JPSpent               int64      `gorm:"column:jp_spent;not null;default:0" json:"jp_spent"`
	LoginStreak           int        `gorm:"not null;default:0" json:"login_streak"`
	LastDailyRewardAt     *time.Time `json:"last_daily_reward_at,omitempty"`
	EmailVerified         bool       `gorm:"default:false" json:"email_verified"`
	VerificationCode      *string    `gorm:"size:100" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
