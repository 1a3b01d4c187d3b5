package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
	"github.com/mythrivebuddy/thrive_server/internal/service"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func setupChallengeRouter(t *testing.T) (*testEnv, http.Handler, *memoryStorage) {
	t.Helper()

	env := newTestEnv(t)
	storage := &memoryStorage{objects: map[string][]byte{}}
	h := NewChallengeHandler(service.NewChallengeService(env.db,
		repository.NewChallengeRepository(env.db), env.users, env.ledger, storage, env.notifier))

	router, authed := env.router()
	router.GET("/challenges/:id", middleware.OptionalAuth(testJWTSecret, env.cfg.Session.CookieName), h.Get)
	authed.POST("/challenges", h.Create)
	authed.POST("/challenges/:id/enroll", h.Enroll)
	authed.GET("/challenges/:id/enrollments", h.Enrollments)
	authed.POST("/challenges/:id/participants/:userId/complete", h.Complete)
	return env, router, storage
}

func TestChallengeHandler_Create(t *testing.T) {
	env, router, _ := setupChallengeRouter(t)
	creator := testutil.TestUser(t, env.db)
	token := tokenFor(t, creator.ID)

	w := performRequest(router, "POST", "/challenges", dto.CreateChallengeRequest{
		Title: "30 days of writing", JoiningFee: 20, StartDate: "2026-11-01", EndDate: "2026-11-30",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int64(dataMap(t, parseResponse(t, w))["id"].(float64))

	w = performRequest(router, "GET", fmt.Sprintf("/challenges/%d", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(20), dataMap(t, parseResponse(t, w))["joining_fee"])

	w = performRequest(router, "POST", "/challenges", dto.CreateChallengeRequest{
		Title: "Backwards", StartDate: "2026-11-30", EndDate: "2026-11-01",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChallengeHandler_EnrollAndComplete(t *testing.T) {
	env, router, storage := setupChallengeRouter(t)
	creator := testutil.TestUser(t, env.db)
	participant := testutil.TestUser(t, env.db, testutil.WithJP(50))
	challenge := testutil.TestChallenge(t, env.db, creator.ID, 20)
	enrollPath := fmt.Sprintf("/challenges/%d/enroll", challenge.ID)

	w := performRequest(router, "POST", enrollPath, nil, tokenFor(t, creator.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", enrollPath, nil, tokenFor(t, participant.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(30), testutil.ReloadUser(t, env.db, participant.ID).JPBalance)
	assert.Equal(t, int64(20), testutil.ReloadUser(t, env.db, creator.ID).JPBalance)

	w = performRequest(router, "POST", enrollPath, nil, tokenFor(t, participant.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int64(30), testutil.ReloadUser(t, env.db, participant.ID).JPBalance)

	w = performRequest(router, "GET", fmt.Sprintf("/challenges/%d/enrollments", challenge.ID), nil, tokenFor(t, participant.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	completePath := fmt.Sprintf("/challenges/%d/participants/%d/complete", challenge.ID, participant.ID)
	w = performRequest(router, "POST", completePath, nil, tokenFor(t, participant.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, "POST", completePath, nil, tokenFor(t, creator.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Equal(t, string(model.EnrollmentCompleted), data["status"])
	assert.NotEmpty(t, data["certificate_url"])
	assert.Len(t, storage.objects, 1)
	assert.Equal(t, int64(180), testutil.ReloadUser(t, env.db, participant.ID).JPBalance)

	w = performRequest(router, "POST", completePath, nil, tokenFor(t, creator.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChallengeHandler_InsufficientFee(t *testing.T) {
	env, router, _ := setupChallengeRouter(t)
	creator := testutil.TestUser(t, env.db)
	participant := testutil.TestUser(t, env.db, testutil.WithJP(5))
	challenge := testutil.TestChallenge(t, env.db, creator.ID, 20)

	w := performRequest(router, "POST", fmt.Sprintf("/challenges/%d/enroll", challenge.ID), nil, tokenFor(t, participant.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient JP", parseResponse(t, w).Message)

	var count int64
	env.db.Model(&model.ChallengeEnrollment{}).Where("challenge_id = ?", challenge.ID).Count(&count)
	assert.Zero(t, count)
}

func TestChallengeHandler_GetShowsViewerEnrollment(t *testing.T) {
	env, router, _ := setupChallengeRouter(t)
	creator := testutil.TestUser(t, env.db)
	participant := testutil.TestUser(t, env.db, testutil.WithJP(50))
	challenge := testutil.TestChallenge(t, env.db, creator.ID, 20)
	path := fmt.Sprintf("/challenges/%d", challenge.ID)

	w := performRequest(router, "POST", path+"/enroll", nil, tokenFor(t, participant.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 匿名访问不带报名信息
	w = performRequest(router, "GET", path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, parseResponse(t, w))
	assert.Nil(t, data["my_enrollment"])
	assert.Equal(t, false, data["is_creator"])

	w = performRequest(router, "GET", path, nil, tokenFor(t, participant.ID))
	require.Equal(t, http.StatusOK, w.Code)
	data = dataMap(t, parseResponse(t, w))
	mine, ok := data["my_enrollment"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	assert.Equal(t, string(model.EnrollmentEnrolled), mine["status"])

	w = performRequest(router, "GET", path, nil, tokenFor(t, creator.ID))
	data = dataMap(t, parseResponse(t, w))
	assert.Equal(t, true, data["is_creator"])
	assert.Nil(t, data["my_enrollment"])

	// 失效的会话按匿名处理
	w = performRequest(router, "GET", path, nil, "not-a-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, dataMap(t, parseResponse(t, w))["my_enrollment"])
}
