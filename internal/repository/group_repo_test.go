package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func TestGroupRepository_Members(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewGroupRepository(db)

	admin := testutil.TestUser(t, db)
	member := testutil.TestUser(t, db)
	group, _ := testutil.TestGroup(t, db, admin.ID, time.Now().UTC())

	require.NoError(t, repo.AddMember(&model.GroupMember{GroupID: group.ID, UserID: member.ID, Role: model.GroupRoleUser}))

	err := repo.AddMember(&model.GroupMember{GroupID: group.ID, UserID: member.ID, Role: model.GroupRoleUser})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	members, err := repo.ListMembers(group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	groups, err := repo.ListByMember(member.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)

	removed, err := repo.RemoveMember(group.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetMember(group.ID, member.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGroupRepository_GoalUniquePerCycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewGroupRepository(db)

	admin := testutil.TestUser(t, db)
	group, cycle := testutil.TestGroup(t, db, admin.ID, time.Now().UTC())
	testutil.TestGoal(t, db, group.ID, cycle.ID, admin.ID)

	err := repo.CreateGoal(&model.Goal{
		GroupID: group.ID, CycleID: cycle.ID, MemberID: admin.ID,
		Title: "again", Status: model.GoalInProgress,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestGroupRepository_MarkGoalRewardedOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewGroupRepository(db)

	admin := testutil.TestUser(t, db)
	group, cycle := testutil.TestGroup(t, db, admin.ID, time.Now().UTC())
	goal := testutil.TestGoal(t, db, group.ID, cycle.ID, admin.ID)

	ok, err := repo.MarkGoalRewarded(goal.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkGoalRewarded(goal.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupRepository_MembersWithoutGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewGroupRepository(db)

	admin := testutil.TestUser(t, db)
	lazy := testutil.TestUser(t, db)
	group, cycle := testutil.TestGroup(t, db, admin.ID, time.Now().UTC().Add(-time.Hour))
	testutil.TestMember(t, db, group.ID, lazy.ID, model.GroupRoleUser)
	testutil.TestGoal(t, db, group.ID, cycle.ID, admin.ID)

	members, err := repo.ListMembersWithoutGoal(group.ID, cycle.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, lazy.ID, members[0].UserID)

	running, err := repo.ListRunningCycles(time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, cycle.ID, running[0].ID)
}
