package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/fsm"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

// recordingNotifier 记录通知调用
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	UserID int64
	Key    string
	Vars   map[string]string
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, key string, vars map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notifyCall{UserID: userID, Key: key, Vars: vars})
	return nil
}

func setupApplicationService(t *testing.T) (*ApplicationService, *gorm.DB, *recordingNotifier) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	testutil.SeedActivities(t, db)
	notifier := &recordingNotifier{}
	cfg := &config.Config{JP: config.JPConfig{SpotlightDays: 2}}
	svc := NewApplicationService(db, repository.NewApplicationRepository(db), newTestLedger(db), notifier, cfg)
	return svc, db, notifier
}

func TestSpotlightFlow_Table(t *testing.T) {
	assert.True(t, SpotlightFlow.Can(model.SpotlightApplied, model.SpotlightInReview))
	assert.True(t, SpotlightFlow.Can(model.SpotlightApproved, model.SpotlightActive))
	assert.False(t, SpotlightFlow.Can(model.SpotlightDisapproved, model.SpotlightActive))
	assert.False(t, SpotlightFlow.Can(model.SpotlightApplied, model.SpotlightApproved))
	assert.True(t, SpotlightFlow.IsTerminal(model.SpotlightDisapproved))
	assert.True(t, SpotlightFlow.IsTerminal(model.SpotlightExpired))

	assert.False(t, ProsperityFlow.Can(model.ProsperityApplied, model.ProsperityApproved))
	assert.True(t, ProsperityFlow.IsTerminal(model.ProsperityApproved))
}

func TestApplicationService_ApplySpotlight(t *testing.T) {
	svc, db, _ := setupApplicationService(t)
	user := testutil.TestUser(t, db, testutil.WithJP(1200))

	item, err := svc.ApplySpotlight(context.Background(), user.ID, &dto.SpotlightApplyRequest{Headline: "My studio", Pitch: "pitch"})
	require.NoError(t, err)
	assert.Equal(t, string(model.SpotlightApplied), item.Status)
	assert.Equal(t, []string{string(model.SpotlightInReview)}, item.NextStatus)

	reloaded := assertLedgerConsistent(t, db, user.ID)
	assert.Equal(t, int64(700), reloaded.JPBalance)

	// 存在未结束的申请
	_, err = svc.ApplySpotlight(context.Background(), user.ID, &dto.SpotlightApplyRequest{Headline: "Again", Pitch: "pitch"})
	assert.ErrorIs(t, err, ErrOpenApplication)
	assert.Equal(t, int64(700), testutil.ReloadUser(t, db, user.ID).JPBalance)
}

func TestApplicationService_ApplySpotlight_Concurrent(t *testing.T) {
	svc, db, _ := setupApplicationService(t)
	user := testutil.TestUser(t, db, testutil.WithJP(5000))

	const attempts = 5
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplySpotlight(context.Background(), user.ID, &dto.SpotlightApplyRequest{Headline: "Race", Pitch: "pitch"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrOpenApplication)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&model.SpotlightApplication{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(4500), assertLedgerConsistent(t, db, user.ID).JPBalance)
}

func TestApplicationService_ApplySpotlight_UnknownUser(t *testing.T) {
	svc, db, _ := setupApplicationService(t)

	_, err := svc.ApplySpotlight(context.Background(), 9999, &dto.SpotlightApplyRequest{Headline: "Ghost", Pitch: "pitch"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, db.Model(&model.SpotlightApplication{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApplicationService_ApplySpotlight_Insufficient(t *testing.T) {
	svc, db, _ := setupApplicationService(t)
	user := testutil.TestUser(t, db, testutil.WithJP(100))

	_, err := svc.ApplySpotlight(context.Background(), user.ID, &dto.SpotlightApplyRequest{Headline: "My studio", Pitch: "pitch"})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	var count int64
	require.NoError(t, db.Model(&model.SpotlightApplication{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, int64(100), assertLedgerConsistent(t, db, user.ID).JPBalance)
}

func TestApplicationService_SpotlightLifecycle(t *testing.T) {
	svc, db, notifier := setupApplicationService(t)
	user := testutil.TestUser(t, db)
	app := testutil.TestSpotlight(t, db, user.ID, model.SpotlightApplied)
	ctx := context.Background()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for _, next := range []model.SpotlightStatus{model.SpotlightInReview, model.SpotlightApproved, model.SpotlightActive} {
		item, err := svc.ChangeSpotlightStatus(ctx, app.ID, string(next), "")
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, string(next), item.Status)
	}

	active, err := svc.ListActiveSpotlights()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, now.AddDate(0, 0, 2).Format(time.RFC3339), active[0].ActiveUntil)

	svc.now = func() time.Time { return now.AddDate(0, 0, 3) }
	expired, err := svc.ExpireSpotlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := repository.NewApplicationRepository(db).GetSpotlight(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SpotlightExpired, stored.Status)

	require.Len(t, notifier.calls, 3)
	assert.Equal(t, model.TemplateSpotlightStatus, notifier.calls[0].Key)
	assert.Equal(t, user.ID, notifier.calls[0].UserID)
}

func TestApplicationService_SpotlightIllegalTransitions(t *testing.T) {
	svc, db, notifier := setupApplicationService(t)
	user := testutil.TestUser(t, db)
	ctx := context.Background()

	disapproved := testutil.TestSpotlight(t, db, user.ID, model.SpotlightDisapproved)
	_, err := svc.ChangeSpotlightStatus(ctx, disapproved.ID, string(model.SpotlightActive), "")
	assert.ErrorIs(t, err, fsm.ErrIllegalTransition)

	applied := testutil.TestSpotlight(t, db, user.ID, model.SpotlightApplied)
	_, err = svc.ChangeSpotlightStatus(ctx, applied.ID, string(model.SpotlightApplied), "")
	assert.ErrorIs(t, err, fsm.ErrSameState)

	_, err = svc.ChangeSpotlightStatus(ctx, applied.ID, "PUBLISHED", "")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = svc.ChangeSpotlightStatus(ctx, 99999, string(model.SpotlightInReview), "")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	assert.Empty(t, notifier.calls)
}

func TestApplicationService_Prosperity(t *testing.T) {
	svc, db, _ := setupApplicationService(t)
	user := testutil.TestUser(t, db, testutil.WithJP(1500))
	ctx := context.Background()

	item, err := svc.ApplyProsperity(ctx, user.ID, &dto.ProsperityApplyRequest{Title: "Grow", Description: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), assertLedgerConsistent(t, db, user.ID).JPBalance)

	// APPLIED 只能进入 IN_REVIEW
	_, err = svc.ChangeProsperityStatus(ctx, item.ID, string(model.ProsperityApproved), "")
	require.ErrorIs(t, err, fsm.ErrIllegalTransition)

	stored, err := repository.NewApplicationRepository(db).GetProsperity(item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProsperityApplied, stored.Status)

	_, err = svc.ChangeProsperityStatus(ctx, item.ID, string(model.ProsperityInReview), "")
	require.NoError(t, err)
	approved, err := svc.ChangeProsperityStatus(ctx, item.ID, string(model.ProsperityApproved), "well deserved")
	require.NoError(t, err)
	assert.Equal(t, "well deserved", approved.ReviewNote)
	assert.Empty(t, approved.NextStatus)

	_, err = svc.ChangeProsperityStatus(ctx, item.ID, string(model.ProsperityDisapproved), "")
	assert.ErrorIs(t, err, fsm.ErrIllegalTransition)

	mine, err := svc.ListMyProsperity(user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, total, err := svc.ListProsperity("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, all[0].Applicant)
}
