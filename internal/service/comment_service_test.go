package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

type commentFixture struct {
	service *CommentService
	admin   *model.User
	member  *model.User
	goal    *model.Goal
}

func setupCommentService(t *testing.T) *commentFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	service := NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewGroupRepository(db),
		repository.NewUserRepository(db),
	)

	admin := testutil.TestUser(t, db, testutil.WithUsername("coach"))
	member := testutil.TestUser(t, db, testutil.WithUsername("runner"))
	group, cycle := testutil.TestGroup(t, db, admin.ID, time.Now().UTC())
	testutil.TestMember(t, db, group.ID, member.ID, model.GroupRoleUser)
	goal := testutil.TestGoal(t, db, group.ID, cycle.ID, member.ID)

	return &commentFixture{service: service, admin: admin, member: member, goal: goal}
}

func TestCommentService_Create_Success(t *testing.T) {
	f := setupCommentService(t)

	item, err := f.service.Create(f.admin.ID, f.goal.ID, &dto.CreateCommentRequest{Content: "Great progress"})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Great progress", item.Content)
	require.NotNil(t, item.Author)
	assert.Equal(t, "coach", item.Author.Username)
}

func TestCommentService_Create_NotMember(t *testing.T) {
	f := setupCommentService(t)

	_, err := f.service.Create(9999, f.goal.ID, &dto.CreateCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrNotGroupMember)

	_, err = f.service.Create(f.admin.ID, 9999, &dto.CreateCommentRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestCommentService_Delete(t *testing.T) {
	f := setupCommentService(t)

	own, err := f.service.Create(f.member.ID, f.goal.ID, &dto.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)
	byAdmin, err := f.service.Create(f.admin.ID, f.goal.ID, &dto.CreateCommentRequest{Content: "admin note"})
	require.NoError(t, err)

	// 普通成员不能删除别人的评论
	assert.ErrorIs(t, f.service.Delete(f.member.ID, byAdmin.ID), ErrCommentPermission)

	// 管理员可以删除成员评论
	require.NoError(t, f.service.Delete(f.admin.ID, own.ID))
	assert.ErrorIs(t, f.service.Delete(f.admin.ID, own.ID), ErrCommentNotFound)

	require.NoError(t, f.service.Delete(f.admin.ID, byAdmin.ID))
}

func TestCommentService_ListByGoalID(t *testing.T) {
	f := setupCommentService(t)

	for _, content := range []string{"first", "second", "third"} {
		_, err := f.service.Create(f.member.ID, f.goal.ID, &dto.CreateCommentRequest{Content: content})
		require.NoError(t, err)
	}

	items, total, err := f.service.ListByGoalID(f.admin.ID, f.goal.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Content)
	assert.Equal(t, "runner", items[0].Author.Username)

	_, _, err = f.service.ListByGoalID(9999, f.goal.ID, 1, 20)
	assert.ErrorIs(t, err, ErrNotGroupMember)
}
