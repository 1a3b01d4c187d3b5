package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func setupApplicationRouter(t *testing.T) (*testEnv, http.Handler) {
	t.Helper()

	env := newTestEnv(t)
	h := NewApplicationHandler(env.applicationService())

	router, authed := env.router()
	router.GET("/spotlight/active", h.ActiveSpotlights)
	authed.POST("/spotlight", h.ApplySpotlight)
	authed.GET("/spotlight", h.MySpotlights)
	authed.POST("/prosperity", h.ApplyProsperity)

	admin := authed.Group("/admin", middleware.AdminOnly(env.users))
	admin.PUT("/spotlight/:id/status", h.ChangeSpotlightStatus)
	admin.PUT("/prosperity/:id/status", h.ChangeProsperityStatus)
	return env, router
}

func TestApplicationHandler_ApplySpotlight(t *testing.T) {
	env, router := setupApplicationRouter(t)
	req := dto.SpotlightApplyRequest{Headline: "Coaching for founders", Pitch: "Weekly sessions"}

	poor := testutil.TestUser(t, env.db, testutil.WithJP(10))
	w := performRequest(router, "POST", "/spotlight", req, tokenFor(t, poor.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient JP", parseResponse(t, w).Message)

	rich := testutil.TestUser(t, env.db, testutil.WithJP(1200))
	token := tokenFor(t, rich.ID)
	w = performRequest(router, "POST", "/spotlight", req, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, string(model.SpotlightApplied), dataMap(t, parseResponse(t, w))["status"])
	assert.Equal(t, int64(700), testutil.ReloadUser(t, env.db, rich.ID).JPBalance)

	w = performRequest(router, "POST", "/spotlight", req, token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(700), testutil.ReloadUser(t, env.db, rich.ID).JPBalance)
}

func TestApplicationHandler_ChangeSpotlightStatus(t *testing.T) {
	env, router := setupApplicationRouter(t)
	admin := testutil.TestUser(t, env.db, testutil.WithAdmin())
	applicant := testutil.TestUser(t, env.db)
	app := testutil.TestSpotlight(t, env.db, applicant.ID, model.SpotlightApplied)
	token := tokenFor(t, admin.ID)
	path := "/admin/spotlight/" + strconv.FormatInt(app.ID, 10) + "/status"

	t.Run("illegal transition", func(t *testing.T) {
		w := performRequest(router, "PUT", path, dto.StatusChangeRequest{Status: string(model.SpotlightActive)}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := parseResponse(t, w)
		assert.Equal(t, response.CodeIllegalTransition, resp.Code)
		assert.Contains(t, resp.Message, "APPLIED")
	})

	t.Run("unknown status", func(t *testing.T) {
		w := performRequest(router, "PUT", path, dto.StatusChangeRequest{Status: "PUBLISHED"}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
	})

	t.Run("unknown application", func(t *testing.T) {
		w := performRequest(router, "PUT", "/admin/spotlight/99999/status",
			dto.StatusChangeRequest{Status: string(model.SpotlightInReview)}, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("valid transition", func(t *testing.T) {
		w := performRequest(router, "PUT", path, dto.StatusChangeRequest{Status: string(model.SpotlightInReview)}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, string(model.SpotlightInReview), dataMap(t, parseResponse(t, w))["status"])
	})

	t.Run("non admin", func(t *testing.T) {
		w := performRequest(router, "PUT", path,
			dto.StatusChangeRequest{Status: string(model.SpotlightApproved)}, tokenFor(t, applicant.ID))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestApplicationHandler_ChangeProsperityStatus(t *testing.T) {
	env, router := setupApplicationRouter(t)
	admin := testutil.TestUser(t, env.db, testutil.WithAdmin())
	applicant := testutil.TestUser(t, env.db)
	app := testutil.TestProsperity(t, env.db, applicant.ID, model.ProsperityApplied)
	path := "/admin/prosperity/" + strconv.FormatInt(app.ID, 10) + "/status"

	w := performRequest(router, "PUT", path,
		dto.StatusChangeRequest{Status: string(model.ProsperityApproved)}, tokenFor(t, admin.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeIllegalTransition, parseResponse(t, w).Code)
}
