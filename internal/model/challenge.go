package model

import (
	"time"
)

const (
	ChallengeOpen   = "OPEN"
	ChallengeClosed = "CLOSED"

	EnrollmentEnrolled  = "ENROLLED"
	EnrollmentCompleted = "COMPLETED"
)

type Challenge struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	CreatorID   int64     `gorm:"not null;index" json:"creator_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	JoiningFee  int64     `gorm:"not null;default:0" json:"joining_fee"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	Status      string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	Creator *User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

func (Challenge) TableName() string {
	return "challenges"
}

type ChallengeEnrollment struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	ChallengeID    int64      `gorm:"not null;uniqueIndex:idx_challenge_user" json:"challenge_id"`
	UserID         int64      `gorm:"not null;uniqueIndex:idx_challenge_user;index" json:"user_id"`
	Status         string     `gorm:"size:20;not null" json:"status"`
	CertificateURL string     `gorm:"size:500" json:"certificate_url,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ChallengeEnrollment) TableName() string {
	return "challenge_enrollments"
}
