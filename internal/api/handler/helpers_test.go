package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/api/middleware"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/jwt"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/payment"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/response"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
	"github.com/mythrivebuddy/thrive_server/internal/service"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testJWTSecret     = "test-secret-key"
	testWebhookSecret = "whsec_handler"
	testCronSecret    = "cron-secret"
)

type nopNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *nopNotifier) Notify(context.Context, int64, string, map[string]string) error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	return nil
}

// testEnv 共享一个 sqlite 库的完整服务栈
type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	users    *repository.UserRepository
	ledger   *service.LedgerService
	notifier *nopNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.SeedActivities(t, db)
	users := repository.NewUserRepository(db)
	return &testEnv{
		db: db,
		cfg: &config.Config{
			Server:  config.ServerConfig{Mode: "debug"},
			JWT:     config.JWTConfig{Secret: testJWTSecret, ExpireHours: 24},
			Session: config.SessionConfig{CookieName: "thrive_session"},
			Payment: config.PaymentConfig{WebhookSecret: testWebhookSecret},
			Cron:    config.CronConfig{Secret: testCronSecret, Concurrency: 1},
			JP:      config.JPConfig{SpotlightDays: 1},
		},
		users:    users,
		ledger:   service.NewLedgerService(db, users, repository.NewActivityRepository(db), repository.NewTransactionRepository(db)),
		notifier: &nopNotifier{},
	}
}

func (e *testEnv) groupService() *service.GroupService {
	return service.NewGroupService(e.db,
		repository.NewGroupRepository(e.db),
		repository.NewCommentRepository(e.db),
		e.users, e.ledger, e.notifier, e.cfg)
}

func (e *testEnv) subscriptionService(gateway payment.Gateway) *service.SubscriptionService {
	return service.NewSubscriptionService(e.db,
		repository.NewSubscriptionRepository(e.db),
		e.users, gateway, nil, e.notifier, e.cfg)
}

func (e *testEnv) applicationService() *service.ApplicationService {
	return service.NewApplicationService(e.db, repository.NewApplicationRepository(e.db), e.ledger, e.notifier, e.cfg)
}

// router 带认证中间件的 gin 引擎
func (e *testEnv) router() (*gin.Engine, *gin.RouterGroup) {
	engine := gin.New()
	authed := engine.Group("")
	authed.Use(middleware.Auth(testJWTSecret, e.cfg.Session.CookieName))
	return engine, authed
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, testJWTSecret, 24)
	require.NoError(t, err)
	return token
}

func performRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap 取 data 字段为 map
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}
