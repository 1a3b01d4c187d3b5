package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

const (
	HeaderTimestamp = "x-webhook-timestamp"
	HeaderSignature = "x-webhook-signature"
)

// 事件类型
const (
	EventSubscriptionStatusChanged  = "SUBSCRIPTION_STATUS_CHANGED"
	EventSubscriptionPaymentSuccess = "SUBSCRIPTION_PAYMENT_SUCCESS"
	EventSubscriptionPaymentFailed  = "SUBSCRIPTION_PAYMENT_FAILED"
	EventOrderPaid                  = "ORDER_PAID"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// Sign 计算 base64(HMAC-SHA256(secret, timestamp + body))
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verifier 校验 webhook 签名
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier tolerance 为 0 时不检查时间戳新鲜度
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, tolerance: tolerance, now: time.Now}
}

func (v *Verifier) Verify(timestamp, signature string, body []byte) error {
	if timestamp == "" || signature == "" || v.secret == "" {
		return ErrMissingSignature
	}

	expected := Sign(v.secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	if v.tolerance > 0 {
		ts, err := parseTimestamp(timestamp)
		if err != nil {
			return ErrInvalidSignature
		}
		diff := v.now().Sub(ts)
		if diff < 0 {
			diff = -diff
		}
		if diff > v.tolerance {
			return ErrStaleTimestamp
		}
	}
	return nil
}

// 网关可能发送秒或毫秒时间戳
func parseTimestamp(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if n > 1e12 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}

// Event webhook 事件信封
type Event struct {
	ID        string          `json:"event_id"`
	Type      string          `json:"type"`
	EventTime string          `json:"event_time"`
	Data      json.RawMessage `json:"data"`
}

// SubscriptionEventData 订阅类事件载荷
type SubscriptionEventData struct {
	SubscriptionID   string  `json:"subscription_id"`
	Status           string  `json:"subscription_status"`
	PaymentID        string  `json:"payment_id,omitempty"`
	PaymentAmount    float64 `json:"payment_amount,omitempty"`
	FailureReason    string  `json:"failure_reason,omitempty"`
	NextScheduleDate string  `json:"next_schedule_date,omitempty"`
}

// OrderEventData 订单类事件载荷
type OrderEventData struct {
	OrderID     string  `json:"order_id"`
	OrderAmount float64 `json:"order_amount"`
	PaymentID   string  `json:"cf_payment_id,omitempty"`
	Status      string  `json:"payment_status"`
}

// ParseEvent 解析事件信封
func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, errors.New("webhook event type is empty")
	}
	return &e, nil
}
