// Package payment 支付网关客户端：订阅授权、取消、一次性订单，以及 webhook 签名校验。
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mythrivebuddy/thrive_server/config"
)

// APIError 网关返回非 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.Message)
}

// CreateSubscriptionRequest 创建定期扣款授权
type CreateSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	PlanID         string `json:"plan_id"`
	CustomerID     string `json:"customer_id"`
	CustomerEmail  string `json:"customer_email"`
	ReturnURL      string `json:"return_url,omitempty"`
}

// SubscriptionResponse 网关订阅信息
type SubscriptionResponse struct {
	SubscriptionID    string `json:"subscription_id"`
	Status            string `json:"subscription_status"`
	AuthorizationLink string `json:"authorization_link"`
}

// CreateOrderRequest 一次性订单
type CreateOrderRequest struct {
	OrderID       string  `json:"order_id"`
	Amount        float64 `json:"order_amount"`
	Currency      string  `json:"order_currency"`
	CustomerID    string  `json:"customer_id"`
	CustomerEmail string  `json:"customer_email"`
	ReturnURL     string  `json:"return_url,omitempty"`
}

// OrderResponse 网关订单信息
type OrderResponse struct {
	OrderID        string `json:"order_id"`
	Status         string `json:"order_status"`
	PaymentSession string `json:"payment_session_id"`
}

// Gateway 服务层依赖的网关能力
type Gateway interface {
	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, gatewaySubscriptionID string) error
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error)
}

// Client 基于 HTTP JSON API 的网关实现
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	apiVersion   string
	returnURL    string
	httpClient   *http.Client
}

func NewClient(cfg *config.PaymentConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiVersion:   cfg.APIVersion,
		returnURL:    cfg.ReturnURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = c.returnURL
	}
	var resp SubscriptionResponse
	if err := c.do(ctx, http.MethodPost, "/subscriptions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelSubscription 取消定期扣款，非 2xx 返回 *APIError
func (c *Client) CancelSubscription(ctx context.Context, gatewaySubscriptionID string) error {
	path := fmt.Sprintf("/subscriptions/%s/manage", gatewaySubscriptionID)
	body := map[string]string{"action": "CANCEL"}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = c.returnURL
	}
	var resp OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: gatewayMessage(raw, resp.Status)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}

// gatewayMessage 提取网关错误信息，取不到时使用 HTTP 状态文本
func gatewayMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fallback
}
