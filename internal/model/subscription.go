package model

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionPending             SubscriptionStatus = "PENDING"
	SubscriptionActive              SubscriptionStatus = "ACTIVE"
	SubscriptionCancellationPending SubscriptionStatus = "CANCELLATION_PENDING"
	SubscriptionCancelled           SubscriptionStatus = "CANCELLED"
	SubscriptionFreeGrant           SubscriptionStatus = "FREE_GRANT"
)

type SubscriptionPlan struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Tier           string    `gorm:"size:20;not null" json:"tier"`
	Price          float64   `gorm:"type:decimal(10,2)" json:"price"`
	Currency       string    `gorm:"size:3;not null" json:"currency"`
	IntervalMonths int       `gorm:"not null" json:"interval_months"`
	GatewayPlanID  string    `gorm:"size:100" json:"-"`
	Active         bool      `gorm:"not null" json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

// Mandate 网关侧的定期扣款授权
type Mandate struct {
	ID                    int64     `gorm:"primaryKey" json:"id"`
	UserID                int64     `gorm:"not null;index" json:"user_id"`
	GatewaySubscriptionID string    `gorm:"size:100;uniqueIndex;not null" json:"gateway_subscription_id"`
	Status                string    `gorm:"size:30;not null" json:"status"`
	AuthorizationLink     string    `gorm:"size:500" json:"authorization_link,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Mandate) TableName() string {
	return "mandates"
}

type Subscription struct {
	ID                  int64              `gorm:"primaryKey" json:"id"`
	UserID              int64              `gorm:"not null;index" json:"user_id"`
	PlanID              int64              `gorm:"not null" json:"plan_id"`
	Status              SubscriptionStatus `gorm:"size:30;not null;index" json:"status"`
	StartDate           *time.Time         `json:"start_date,omitempty"`
	EndDate             *time.Time         `gorm:"index" json:"end_date,omitempty"`
	MandateID           *int64             `gorm:"index" json:"mandate_id,omitempty"`
	GrantedByPurchaseID *int64             `json:"granted_by_purchase_id,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`

	// 关联
	Plan    *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Mandate *Mandate          `gorm:"foreignKey:MandateID" json:"mandate,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Payment 订阅扣款记录
type Payment struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	SubscriptionID   int64     `gorm:"not null;index" json:"subscription_id"`
	UserID           int64     `gorm:"not null;index" json:"user_id"`
	GatewayPaymentID string    `gorm:"size:100;index" json:"gateway_payment_id"`
	Amount           float64   `gorm:"type:decimal(10,2)" json:"amount"`
	Status           string    `gorm:"size:20;not null" json:"status"` // SUCCESS, FAILED
	CreatedAt        time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

const (
	PurchasePending = "PENDING"
	PurchasePaid    = "PAID"
)

// Purchase 一次性订单，支付成功后授予 FREE_GRANT 订阅
type Purchase struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	UserID         int64      `gorm:"not null;index" json:"user_id"`
	PlanID         int64      `gorm:"not null" json:"plan_id"`
	OrderID        string     `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	Amount         float64    `gorm:"type:decimal(10,2)" json:"amount"`
	Status         string     `gorm:"size:20;not null" json:"status"`
	PaymentSession string     `gorm:"size:255" json:"payment_session,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}
