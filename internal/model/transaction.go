package model

import (
	"time"
)

// Transaction 积分流水，只追加不修改
type Transaction struct {
	ID           int64        `gorm:"primaryKey" json:"id"`
	UserID       int64        `gorm:"not null;index" json:"user_id"`
	ActivityID   int64        `gorm:"not null;index" json:"activity_id"`
	Kind         ActivityKind `gorm:"size:50;not null" json:"kind"`
	Direction    Direction    `gorm:"size:10;not null" json:"direction"`
	Amount       int64        `gorm:"not null" json:"amount"`
	BalanceAfter int64        `gorm:"not null" json:"balance_after"`
	Reference    string       `gorm:"size:36;index" json:"reference,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "jp_transactions"
}
