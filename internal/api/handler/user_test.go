package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/service"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Put(key string, data []byte, _ string) (string, error) {
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryStorage) Delete(key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) ExtractObjectKey(url string) string {
	return strings.TrimPrefix(url, "https://cdn.example.com/")
}

func setupUserRouter(t *testing.T) (*testEnv, http.Handler, *memoryStorage) {
	t.Helper()

	env := newTestEnv(t)
	storage := &memoryStorage{objects: map[string][]byte{}}
	h := NewUserHandler(service.NewUserService(env.users, storage, env.cfg))

	router, authed := env.router()
	authed.GET("/user/profile", h.GetProfile)
	authed.PUT("/user/profile", h.UpdateProfile)
	authed.POST("/user/avatar", h.UploadAvatar)
	return env, router, storage
}

func TestUserHandler_GetProfile(t *testing.T) {
	env, router, _ := setupUserRouter(t)
	user := testutil.TestUser(t, env.db, testutil.WithUsername("profileuser"), testutil.WithJP(250))

	w := performRequest(router, "GET", "/user/profile", nil, tokenFor(t, user.ID))
	require.Equal(t, http.StatusOK, w.Code)

	data := dataMap(t, parseResponse(t, w))
	assert.Equal(t, "profileuser", data["username"])
	jp := data["jp"].(map[string]interface{})
	assert.Equal(t, float64(250), jp["balance"])
}

func TestUserHandler_Unauthenticated(t *testing.T) {
	_, router, _ := setupUserRouter(t)

	w := performRequest(router, "GET", "/user/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_UpdateProfile_Conflict(t *testing.T) {
	env, router, _ := setupUserRouter(t)
	user := testutil.TestUser(t, env.db)
	testutil.TestUser(t, env.db, testutil.WithUsername("taken"))

	taken := "taken"
	w := performRequest(router, "PUT", "/user/profile", dto.UpdateProfileRequest{Username: &taken}, tokenFor(t, user.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserHandler_UploadAvatar(t *testing.T) {
	env, router, storage := setupUserRouter(t)
	user := testutil.TestUser(t, env.db)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/user/avatar", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, user.ID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, parseResponse(t, w))
	assert.Contains(t, data["avatar_url"], "https://cdn.example.com/avatars/")
	assert.Len(t, storage.objects, 1)
}

func TestUserHandler_UploadAvatar_MissingFile(t *testing.T) {
	env, router, _ := setupUserRouter(t)
	user := testutil.TestUser(t, env.db)

	w := performRequest(router, "POST", "/user/avatar", nil, tokenFor(t, user.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
