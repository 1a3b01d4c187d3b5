package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func setupLedgerRouter(t *testing.T) (*testEnv, http.Handler) {
	t.Helper()

	env := newTestEnv(t)
	h := NewLedgerHandler(env.ledger)

	router, authed := env.router()
	router.GET("/activities", h.Activities)
	authed.GET("/user/jp", h.Summary)
	authed.GET("/user/transactions", h.Transactions)
	authed.POST("/jp/deduct", h.Deduct)
	authed.POST("/jp/daily-reward", h.DailyReward)

	admin := authed.Group("/admin", middleware.AdminOnly(env.users))
	admin.POST("/jp/assign", h.AdminAssign)
	admin.PUT("/activities/:kind", h.UpdateActivity)
	return env, router
}

func TestLedgerHandler_Deduct(t *testing.T) {
	env, router := setupLedgerRouter(t)

	t.Run("insufficient balance", func(t *testing.T) {
		user := testutil.TestUser(t, env.db, testutil.WithJP(100))

		w := performRequest(router, "POST", "/jp/deduct",
			dto.DeductRequest{Activity: string(model.ActivitySpotlightApplication)}, tokenFor(t, user.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeInsufficientBalance, resp.Code)
		assert.Equal(t, "Insufficient JP", resp.Message)
		assert.Equal(t, int64(100), testutil.ReloadUser(t, env.db, user.ID).JPBalance)
	})

	t.Run("success", func(t *testing.T) {
		user := testutil.TestUser(t, env.db, testutil.WithJP(600))

		w := performRequest(router, "POST", "/jp/deduct",
			dto.DeductRequest{Activity: string(model.ActivitySpotlightApplication)}, tokenFor(t, user.ID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data := dataMap(t, parseResponse(t, w))
		assert.Equal(t, float64(500), data["amount"])
		assert.Equal(t, float64(100), data["balance_after"])
	})

	t.Run("penalty is admin only", func(t *testing.T) {
		user := testutil.TestUser(t, env.db, testutil.WithJP(600))

		w := performRequest(router, "POST", "/jp/deduct",
			dto.DeductRequest{Activity: string(model.ActivityAdminPenalty)}, tokenFor(t, user.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
	})

	t.Run("unknown activity", func(t *testing.T) {
		user := testutil.TestUser(t, env.db, testutil.WithJP(600))

		w := performRequest(router, "POST", "/jp/deduct", dto.DeductRequest{Activity: "NOPE"}, tokenFor(t, user.ID))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLedgerHandler_DailyReward(t *testing.T) {
	env, router := setupLedgerRouter(t)
	user := testutil.TestUser(t, env.db)
	token := tokenFor(t, user.ID)

	w := performRequest(router, "POST", "/jp/daily-reward", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Equal(t, float64(1), data["streak"])
	assert.Equal(t, float64(10), data["balance"])

	w = performRequest(router, "POST", "/jp/daily-reward", nil, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(router, "GET", "/user/transactions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	page := dataMap(t, parseResponse(t, w))
	assert.Equal(t, float64(1), page["total"])
}

func TestLedgerHandler_AdminAssign(t *testing.T) {
	env, router := setupLedgerRouter(t)
	admin := testutil.TestUser(t, env.db, testutil.WithAdmin())
	member := testutil.TestUser(t, env.db)

	amount := int64(42)
	req := dto.AdminJPRequest{UserID: member.ID, Activity: string(model.ActivityAdminGrant), Amount: &amount}

	w := performRequest(router, "POST", "/admin/jp/assign", req, tokenFor(t, member.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, "POST", "/admin/jp/assign", req, tokenFor(t, admin.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(42), testutil.ReloadUser(t, env.db, member.ID).JPBalance)
}

func TestLedgerHandler_Activities(t *testing.T) {
	env, router := setupLedgerRouter(t)
	admin := testutil.TestUser(t, env.db, testutil.WithAdmin())

	inactive := false
	w := performRequest(router, "PUT", "/admin/activities/DAILY_LOGIN",
		dto.UpdateActivityRequest{Active: &inactive}, tokenFor(t, admin.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(router, "GET", "/activities", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	items, ok := parseResponse(t, w).Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, len(model.DefaultActivities()))
}
