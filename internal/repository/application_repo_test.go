package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func TestApplicationRepository_UpdateSpotlightStatus_Optimistic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewApplicationRepository(db)
	user := testutil.TestUser(t, db)
	app := testutil.TestSpotlight(t, db, user.ID, model.SpotlightApplied)

	ok, err := repo.UpdateSpotlightStatus(app.ID, model.SpotlightApplied, map[string]interface{}{"status": model.SpotlightInReview})
	require.NoError(t, err)
	assert.True(t, ok)

	// 状态已经变化，旧的 from 不再匹配
	ok, err = repo.UpdateSpotlightStatus(app.ID, model.SpotlightApplied, map[string]interface{}{"status": model.SpotlightDisapproved})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetSpotlight(app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SpotlightInReview, found.Status)
}

func TestApplicationRepository_ActiveSpotlights(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewApplicationRepository(db)
	user := testutil.TestUser(t, db)

	now := time.Now().UTC()
	current := testutil.TestSpotlight(t, db, user.ID, model.SpotlightActive)
	stale := testutil.TestSpotlight(t, db, user.ID, model.SpotlightActive)
	require.NoError(t, db.Model(current).Updates(map[string]interface{}{"active_from": now.Add(-time.Hour), "active_until": now.Add(time.Hour)}).Error)
	require.NoError(t, db.Model(stale).Updates(map[string]interface{}{"active_from": now.Add(-48 * time.Hour), "active_until": now.Add(-24 * time.Hour)}).Error)

	active, err := repo.ListActiveSpotlights(now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, current.ID, active[0].ID)

	expired, err := repo.ListSpotlightsToExpire(now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
}

func TestApplicationRepository_CountOpenSpotlights(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewApplicationRepository(db)
	user := testutil.TestUser(t, db)

	testutil.TestSpotlight(t, db, user.ID, model.SpotlightDisapproved)
	testutil.TestSpotlight(t, db, user.ID, model.SpotlightInReview)

	count, err := repo.CountOpenSpotlights(user.ID, []model.SpotlightStatus{model.SpotlightApplied, model.SpotlightInReview})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestApplicationRepository_ListProsperity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewApplicationRepository(db)
	user := testutil.TestUser(t, db)

	testutil.TestProsperity(t, db, user.ID, model.ProsperityApplied)
	testutil.TestProsperity(t, db, user.ID, model.ProsperityInReview)

	list, total, err := repo.ListProsperity(model.ProsperityApplied, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)

	all, total, err := repo.ListProsperity("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}
