package model

import (
	"time"
)

const (
	GroupRoleAdmin = "ADMIN"
	GroupRoleUser  = "USER"

	CycleStatusActive = "active"
	CycleStatusRepeat = "repeat"
)

type GoalStatus string

const (
	GoalInProgress GoalStatus = "IN_PROGRESS"
	GoalCompleted  GoalStatus = "COMPLETED"
	GoalMissed     GoalStatus = "MISSED"
)

// Group 问责小组
type Group struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   int64     `gorm:"not null;index" json:"creator_id"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "accountability_groups"
}

type GroupMember struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	GroupID   int64     `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	Role      string    `gorm:"size:10;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// Cycle 小组的一个目标周期
type Cycle struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	GroupID   int64     `gorm:"not null;index" json:"group_id"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null;index" json:"end_date"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Cycle) TableName() string {
	return "cycles"
}

// Goal 每个成员在每个周期只有一个目标
type Goal struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	GroupID     int64      `gorm:"not null;index" json:"group_id"`
	CycleID     int64      `gorm:"not null;uniqueIndex:idx_goal_member_cycle" json:"cycle_id"`
	MemberID    int64      `gorm:"not null;uniqueIndex:idx_goal_member_cycle" json:"member_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      GoalStatus `gorm:"size:20;not null" json:"status"`
	Rewarded    bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Member *User `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (Goal) TableName() string {
	return "goals"
}

type GoalComment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	GoalID    int64     `gorm:"not null;index" json:"goal_id"`
	AuthorID  int64     `gorm:"not null;index" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// 关联
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (GoalComment) TableName() string {
	return "goal_comments"
}
