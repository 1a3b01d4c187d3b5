package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	email := fmt.Sprintf("test_%d_%d@example.com", n, time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:       fmt.Sprintf("testuser_%d", n),
		Email:          &email,
		PasswordHash:   &passwordHash,
		Role:           model.RoleUser,
		MembershipTier: model.TierFree,
		EmailVerified:  true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithPassword 设置密码哈希
func WithPassword(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = &hash
	}
}

// WithJP 设置初始余额，earned 与 balance 相同
func WithJP(balance int64) func(*model.User) {
	return func(u *model.User) {
		u.JPBalance = balance
		u.JPEarned = balance
		u.JPSpent = 0
	}
}

// WithAdmin 设置为管理员
func WithAdmin() func(*model.User) {
	return func(u *model.User) {
		u.Role = model.RoleAdmin
	}
}

func WithUnverified() func(*model.User) {
	return func(u *model.User) {
		u.EmailVerified = false
	}
}

// SeedActivities 写入完整的积分活动目录
func SeedActivities(t *testing.T, db *gorm.DB) map[model.ActivityKind]*model.Activity {
	t.Helper()

	out := make(map[model.ActivityKind]*model.Activity)
	for _, a := range model.DefaultActivities() {
		a := a
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("Failed to seed activity %s: %v", a.Kind, err)
		}
		out[a.Kind] = &a
	}
	return out
}

// TestActivity 创建或覆盖一个活动
func TestActivity(t *testing.T, db *gorm.DB, kind model.ActivityKind, amount int64, direction model.Direction) *model.Activity {
	t.Helper()

	activity := &model.Activity{
		Kind:      kind,
		Name:      string(kind),
		JPAmount:  amount,
		Direction: direction,
		Active:    true,
	}
	if err := db.Where("kind = ?", kind).Delete(&model.Activity{}).Error; err != nil {
		t.Fatalf("Failed to clear activity %s: %v", kind, err)
	}
	if err := db.Create(activity).Error; err != nil {
		t.Fatalf("Failed to create activity %s: %v", kind, err)
	}
	return activity
}

// TestPlan 创建订阅套餐
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.SubscriptionPlan)) *model.SubscriptionPlan {
	t.Helper()

	plan := &model.SubscriptionPlan{
		Name:           fmt.Sprintf("Premium %d", nextSeq()),
		Tier:           model.TierPremium,
		Price:          9.99,
		Currency:       "USD",
		IntervalMonths: 1,
		GatewayPlanID:  fmt.Sprintf("plan_%d", nextSeq()),
		Active:         true,
	}
	for _, opt := range opts {
		opt(plan)
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}
	return plan
}

// TestSubscription 创建订阅
func TestSubscription(t *testing.T, db *gorm.DB, userID, planID int64, status model.SubscriptionStatus, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		UserID: userID,
		PlanID: planID,
		Status: status,
	}
	for _, opt := range opts {
		opt(sub)
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}
	return sub
}

// TestMandate 创建网关授权
func TestMandate(t *testing.T, db *gorm.DB, userID int64, gatewayID string) *model.Mandate {
	t.Helper()

	m := &model.Mandate{
		UserID:                userID,
		GatewaySubscriptionID: gatewayID,
		Status:                "ACTIVE",
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to create test mandate: %v", err)
	}
	return m
}

// TestSpotlight 创建 Spotlight 申请
func TestSpotlight(t *testing.T, db *gorm.DB, userID int64, status model.SpotlightStatus) *model.SpotlightApplication {
	t.Helper()

	app := &model.SpotlightApplication{
		UserID:   userID,
		Status:   status,
		Headline: "Look at my work",
		Pitch:    "pitch",
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("Failed to create test spotlight application: %v", err)
	}
	return app
}

// TestProsperity 创建 ProsperityDrop 申请
func TestProsperity(t *testing.T, db *gorm.DB, userID int64, status model.ProsperityStatus) *model.ProsperityDropApplication {
	t.Helper()

	app := &model.ProsperityDropApplication{
		UserID:      userID,
		Status:      status,
		Title:       "Help me grow",
		Description: "description",
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("Failed to create test prosperity application: %v", err)
	}
	return app
}

// TestGroup 创建小组、管理员成员和当前周期
func TestGroup(t *testing.T, db *gorm.DB, adminID int64, start time.Time) (*model.Group, *model.Cycle) {
	t.Helper()

	group := &model.Group{
		Name:      fmt.Sprintf("group_%d", nextSeq()),
		CreatorID: adminID,
		Notes:     "shared notes",
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	TestMember(t, db, group.ID, adminID, model.GroupRoleAdmin)

	cycle := &model.Cycle{
		GroupID:   group.ID,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Status:    model.CycleStatusActive,
	}
	if err := db.Create(cycle).Error; err != nil {
		t.Fatalf("Failed to create test cycle: %v", err)
	}
	return group, cycle
}

// TestMember 加入小组
func TestMember(t *testing.T, db *gorm.DB, groupID, userID int64, role string) *model.GroupMember {
	t.Helper()

	m := &model.GroupMember{GroupID: groupID, UserID: userID, Role: role}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}
	return m
}

// TestGoal 创建目标
func TestGoal(t *testing.T, db *gorm.DB, groupID, cycleID, memberID int64) *model.Goal {
	t.Helper()

	g := &model.Goal{
		GroupID:  groupID,
		CycleID:  cycleID,
		MemberID: memberID,
		Title:    "Ship it",
		Status:   model.GoalInProgress,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("Failed to create test goal: %v", err)
	}
	return g
}

// TestGoalComment 创建目标评论
func TestGoalComment(t *testing.T, db *gorm.DB, goalID, authorID int64, content string) *model.GoalComment {
	t.Helper()

	c := &model.GoalComment{GoalID: goalID, AuthorID: authorID, Content: content}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create test goal comment: %v", err)
	}
	return c
}

// TestChallenge 创建挑战
func TestChallenge(t *testing.T, db *gorm.DB, creatorID, fee int64) *model.Challenge {
	t.Helper()

	now := time.Now().UTC()
	c := &model.Challenge{
		CreatorID:  creatorID,
		Title:      fmt.Sprintf("challenge_%d", nextSeq()),
		JoiningFee: fee,
		StartDate:  now,
		EndDate:    now.AddDate(0, 0, 30),
		Status:     model.ChallengeOpen,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create test challenge: %v", err)
	}
	return c
}

// TestTemplate 创建邮件模板
func TestTemplate(t *testing.T, db *gorm.DB, key, subject, body string) *model.EmailTemplate {
	t.Helper()

	tpl := &model.EmailTemplate{Key: key, Subject: subject, Body: body}
	if err := db.Create(tpl).Error; err != nil {
		t.Fatalf("Failed to create test template: %v", err)
	}
	return tpl
}

// ReloadUser 重新读取用户
func ReloadUser(t *testing.T, db *gorm.DB, id int64) *model.User {
	t.Helper()

	var u model.User
	if err := db.First(&u, id).Error; err != nil {
		t.Fatalf("Failed to reload user %d: %v", id, err)
	}
	return &u
}
