package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func TestCommentRepository_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewCommentRepository(db)

	admin := testutil.TestUser(t, db)
	group, cycle := testutil.TestGroup(t, db, admin.ID, time.Now().UTC())
	goal := testutil.TestGoal(t, db, group.ID, cycle.ID, admin.ID)

	comment := &model.GoalComment{GoalID: goal.ID, AuthorID: admin.ID, Content: "keep going"}
	require.NoError(t, repo.Create(comment))
	assert.NotZero(t, comment.ID)

	testutil.TestGoalComment(t, db, goal.ID, admin.ID, "second")

	list, total, err := repo.ListByGoalID(goal.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "keep going", list[0].Content)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, admin.ID, list[0].Author.ID)

	found, err := repo.GetByIDWithAuthor(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.Username, found.Author.Username)
}

func TestCommentRepository_DeleteByCycleID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewCommentRepository(db)

	admin := testutil.TestUser(t, db)
	member := testutil.TestUser(t, db)
	group, cycle := testutil.TestGroup(t, db, admin.ID, time.Now().UTC())
	testutil.TestMember(t, db, group.ID, member.ID, model.GroupRoleUser)

	g1 := testutil.TestGoal(t, db, group.ID, cycle.ID, admin.ID)
	g2 := testutil.TestGoal(t, db, group.ID, cycle.ID, member.ID)
	testutil.TestGoalComment(t, db, g1.ID, member.ID, "a")
	testutil.TestGoalComment(t, db, g2.ID, admin.ID, "b")

	// 其他小组的评论不受影响
	otherGroup, otherCycle := testutil.TestGroup(t, db, member.ID, time.Now().UTC())
	other := testutil.TestGoal(t, db, otherGroup.ID, otherCycle.ID, member.ID)
	testutil.TestGoalComment(t, db, other.ID, member.ID, "c")

	count, err := repo.CountByCycleID(cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := repo.DeleteByCycleID(cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err = repo.CountByCycleID(otherCycle.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
