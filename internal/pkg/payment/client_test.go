package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.PaymentConfig{
		BaseURL:      srv.URL,
		ClientID:     "cid",
		ClientSecret: "csecret",
		APIVersion:   "2025-01-01",
		ReturnURL:    "https://app.example.com/return",
	})
}

func TestClient_CreateSubscription(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions", r.URL.Path)
		assert.Equal(t, "cid", r.Header.Get("x-client-id"))
		assert.Equal(t, "2025-01-01", r.Header.Get("x-api-version"))

		var req CreateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "plan_1", req.PlanID)
		assert.Equal(t, "https://app.example.com/return", req.ReturnURL)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subscription_id":"sub_1","subscription_status":"INITIALIZED","authorization_link":"https://pay/auth"}`))
	})

	resp, err := client.CreateSubscription(context.Background(), &CreateSubscriptionRequest{
		SubscriptionID: "local_1",
		PlanID:         "plan_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", resp.SubscriptionID)
	assert.Equal(t, "https://pay/auth", resp.AuthorizationLink)
}

func TestClient_CancelSubscription_Non2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/sub_9/manage", r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"subscription already cancelled"}`))
	})

	err := client.CancelSubscription(context.Background(), "sub_9")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "subscription already cancelled", apiErr.Message)
}

func TestClient_CancelSubscription_OK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, client.CancelSubscription(context.Background(), "sub_1"))
}

func TestClient_CreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 19.5, req.Amount)
		_, _ = w.Write([]byte(`{"order_id":"` + req.OrderID + `","order_status":"ACTIVE","payment_session_id":"sess_1"}`))
	})

	resp, err := client.CreateOrder(context.Background(), &CreateOrderRequest{OrderID: "o1", Amount: 19.5, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "o1", resp.OrderID)
	assert.Equal(t, "sess_1", resp.PaymentSession)
}

func TestClient_Non2xxWithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CreateOrder(context.Background(), &CreateOrderRequest{OrderID: "o1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "502 Bad Gateway", apiErr.Message)
}
