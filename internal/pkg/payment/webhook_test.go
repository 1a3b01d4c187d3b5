package payment

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Verify(t *testing.T) {
	body := []byte(`{"type":"ORDER_PAID"}`)
	ts := "1767225600"
	v := NewVerifier("secret", 0)

	assert.NoError(t, v.Verify(ts, Sign("secret", ts, body), body))
	assert.ErrorIs(t, v.Verify(ts, Sign("other", ts, body), body), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(ts, Sign("secret", ts, body), []byte(`{}`)), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("", "sig", body), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify(ts, "", body), ErrMissingSignature)
	assert.ErrorIs(t, NewVerifier("", 0).Verify(ts, "x", body), ErrMissingSignature)
}

func TestVerifier_Tolerance(t *testing.T) {
	body := []byte(`{}`)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := NewVerifier("secret", 5*time.Minute)
	v.now = func() time.Time { return now }

	fresh := strconv.FormatInt(now.Add(-time.Minute).Unix(), 10)
	assert.NoError(t, v.Verify(fresh, Sign("secret", fresh, body), body))

	millis := strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10)
	assert.NoError(t, v.Verify(millis, Sign("secret", millis, body), body))

	stale := strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)
	assert.ErrorIs(t, v.Verify(stale, Sign("secret", stale, body), body), ErrStaleTimestamp)
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent([]byte(`{"event_id":"evt_1","type":"ORDER_PAID","data":{"order_id":"o1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", e.ID)
	assert.Equal(t, EventOrderPaid, e.Type)

	_, err = ParseEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
