package model

import (
	"time"
)

type SpotlightStatus string

const (
	SpotlightApplied     SpotlightStatus = "APPLIED"
	SpotlightInReview    SpotlightStatus = "IN_REVIEW"
	SpotlightApproved    SpotlightStatus = "APPROVED"
	SpotlightDisapproved SpotlightStatus = "DISAPPROVED"
	SpotlightActive      SpotlightStatus = "ACTIVE"
	SpotlightExpired     SpotlightStatus = "EXPIRED"
)

type SpotlightApplication struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	Status      SpotlightStatus `gorm:"size:20;not null;index" json:"status"`
	Headline    string          `gorm:"size:200;not null" json:"headline"`
	Pitch       string          `gorm:"type:text" json:"pitch"`
	WebsiteURL  string          `gorm:"size:500" json:"website_url,omitempty"`
	ReviewNote  string          `gorm:"type:text" json:"review_note,omitempty"`
	ActiveFrom  *time.Time      `json:"active_from,omitempty"`
	ActiveUntil *time.Time      `gorm:"index" json:"active_until,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (SpotlightApplication) TableName() string {
	return "spotlight_applications"
}

type ProsperityStatus string

const (
	ProsperityApplied     ProsperityStatus = "APPLIED"
	ProsperityInReview    ProsperityStatus = "IN_REVIEW"
	ProsperityApproved    ProsperityStatus = "APPROVED"
	ProsperityDisapproved ProsperityStatus = "DISAPPROVED"
)

type ProsperityDropApplication struct {
	ID          int64            `gorm:"primaryKey" json:"id"`
	UserID      int64            `gorm:"not null;index" json:"user_id"`
	Status      ProsperityStatus `gorm:"size:20;not null;index" json:"status"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	ReviewNote  string           `gorm:"type:text" json:"review_note,omitempty"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProsperityDropApplication) TableName() string {
	return "prosperity_drop_applications"
}
