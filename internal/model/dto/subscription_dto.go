package dto

// PlanItem 订阅套餐
type PlanItem struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Tier           string  `json:"tier"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	IntervalMonths int     `json:"interval_months"`
}

// CheckoutRequest 发起订阅
type CheckoutRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

// CheckoutResponse 返回网关授权链接
type CheckoutResponse struct {
	SubscriptionID    int64  `json:"subscription_id"`
	Status            string `json:"status"`
	AuthorizationLink string `json:"authorization_link"`
}

// SubscriptionInfo 当前订阅
type SubscriptionInfo struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Plan      *PlanItem `json:"plan,omitempty"`
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
	Recurring bool      `json:"recurring"`
}

// PurchaseRequest 一次性购买
type PurchaseRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

// PurchaseResponse 返回支付会话
type PurchaseResponse struct {
	OrderID        string  `json:"order_id"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	PaymentSession string  `json:"payment_session"`
}
