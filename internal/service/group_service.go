package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrCycleNotFound   = errors.New("group has no cycle")
	ErrNotGroupMember  = errors.New("you are not a member of this group")
	ErrNotGroupAdmin   = errors.New("only group admins can do this")
	ErrAlreadyMember   = errors.New("user is already a member")
	ErrMemberNotFound  = errors.New("member not found")
	ErrRemoveCreator   = errors.New("the group creator cannot be removed")
	ErrGoalNotFound    = errors.New("goal not found")
	ErrGoalPermission  = errors.New("only the goal owner can change its status")
	ErrGoalCycleClosed = errors.New("goal does not belong to the current cycle")
)

type GroupService struct {
	db          *gorm.DB
	groupRepo   *repository.GroupRepository
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	ledger      *LedgerService
	notifier    Notifier
	cfg         *config.Config
	now         func() time.Time
	log         *logrus.Entry
}

func NewGroupService(
	db *gorm.DB,
	groupRepo *repository.GroupRepository,
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	ledger *LedgerService,
	notifier Notifier,
	cfg *config.Config,
) *GroupService {
	return &GroupService{
		db:          db,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		notifier:    notifier,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Component("group"),
	}
}

// Create 创建小组，创建者成为管理员并开启第一个周期
func (s *GroupService) Create(ctx context.Context, userID int64, req *dto.CreateGroupRequest) (*dto.GroupDetail, error) {
	group := &model.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
	}

	start := startOfDay(s.now())
	cycle := &model.Cycle{
		StartDate: start,
		EndDate:   AddMonths(start, 1),
		Status:    model.CycleStatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		if err := groups.Create(group); err != nil {
			return err
		}
		if err := groups.AddMember(&model.GroupMember{
			GroupID: group.ID,
			UserID:  userID,
			Role:    model.GroupRoleAdmin,
		}); err != nil {
			return err
		}
		cycle.GroupID = group.ID
		return groups.CreateCycle(cycle)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"group_id": group.ID, "user_id": userID}).Info("group created")
	return s.Detail(userID, group.ID)
}

// ListMine 我加入的小组
func (s *GroupService) ListMine(userID int64) ([]*dto.GroupItem, error) {
	groups, err := s.groupRepo.ListByMember(userID)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.GroupItem, len(groups))
	for i, g := range groups {
		items[i] = groupItem(g)
	}
	return items, nil
}

// Detail 小组详情，仅成员可见
func (s *GroupService) Detail(userID, groupID int64) (*dto.GroupDetail, error) {
	group, member, err := s.requireMember(groupID, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(groupID)
	if err != nil {
		return nil, err
	}

	detail := &dto.GroupDetail{
		GroupItem: *groupItem(group),
		Notes:     group.Notes,
		MyRole:    member.Role,
		Members:   make([]*dto.MemberItem, 0, len(members)),
	}
	for _, m := range members {
		item := &dto.MemberItem{UserID: m.UserID, Role: m.Role}
		if m.User != nil {
			item.Username = m.User.Username
		}
		detail.Members = append(detail.Members, item)
	}

	cycle, err := s.groupRepo.GetCurrentCycle(groupID)
	if err == nil {
		detail.Cycle = cycleItem(cycle)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}

// AddMember 管理员添加成员
func (s *GroupService) AddMember(adminID, groupID int64, req *dto.AddMemberRequest) (*dto.MemberItem, error) {
	if _, err := s.requireAdmin(groupID, adminID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.GroupRoleUser
	}
	m := &model.GroupMember{GroupID: groupID, UserID: user.ID, Role: role}
	if err := s.groupRepo.AddMember(m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return &dto.MemberItem{UserID: user.ID, Username: user.Username, Role: role}, nil
}

// RemoveMember 管理员移除成员
func (s *GroupService) RemoveMember(adminID, groupID, userID int64) error {
	group, err := s.requireAdmin(groupID, adminID)
	if err != nil {
		return err
	}
	if userID == group.CreatorID {
		return ErrRemoveCreator
	}
	n, err := s.groupRepo.RemoveMember(groupID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdateNotes 管理员更新共享笔记
func (s *GroupService) UpdateNotes(adminID, groupID int64, notes string) error {
	if _, err := s.requireAdmin(groupID, adminID); err != nil {
		return err
	}
	return s.groupRepo.UpdateNotes(groupID, notes)
}

// UpsertGoal 设置或修改自己在当前周期的目标
func (s *GroupService) UpsertGoal(userID, groupID int64, req *dto.UpsertGoalRequest) (*dto.GoalItem, error) {
	if _, _, err := s.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	cycle, err := s.currentCycle(groupID)
	if err != nil {
		return nil, err
	}

	goal, err := s.groupRepo.GetGoalByMember(cycle.ID, userID)
	switch {
	case err == nil:
		if err := s.groupRepo.UpdateGoalFields(goal.ID, map[string]interface{}{
			"title":       req.Title,
			"description": req.Description,
		}); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		goal = &model.Goal{
			GroupID:     groupID,
			CycleID:     cycle.ID,
			MemberID:    userID,
			Title:       req.Title,
			Description: req.Description,
			Status:      model.GoalInProgress,
		}
		if err := s.groupRepo.CreateGoal(goal); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	goal, err = s.groupRepo.GetGoal(goal.ID)
	if err != nil {
		return nil, err
	}
	return goalItem(goal), nil
}

// UpdateGoalStatus 目标主人更新状态，首次完成时奖励 GOAL_COMPLETED
func (s *GroupService) UpdateGoalStatus(ctx context.Context, userID, goalID int64, status model.GoalStatus) (*dto.GoalItem, error) {
	goal, err := s.groupRepo.GetGoal(goalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if goal.MemberID != userID {
		return nil, ErrGoalPermission
	}
	cycle, err := s.currentCycle(goal.GroupID)
	if err != nil {
		return nil, err
	}
	if cycle.ID != goal.CycleID {
		return nil, ErrGoalCycleClosed
	}

	err = s.ledger.Atomic(ctx, func(ctx context.Context, tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		if err := groups.UpdateGoalFields(goal.ID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		if status != model.GoalCompleted {
			return nil
		}
		first, err := groups.MarkGoalRewarded(goal.ID)
		if err != nil || !first {
			return err
		}
		_, err = s.ledger.AssignJP(ctx, tx, userID, model.ActivityGoalCompleted, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	goal, err = s.groupRepo.GetGoal(goalID)
	if err != nil {
		return nil, err
	}
	return goalItem(goal), nil
}

// ListGoals 当前周期的所有目标
func (s *GroupService) ListGoals(userID, groupID int64) ([]*dto.GoalItem, error) {
	if _, _, err := s.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	cycle, err := s.currentCycle(groupID)
	if err != nil {
		return nil, err
	}
	goals, err := s.groupRepo.ListGoals(cycle.ID)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.GoalItem, len(goals))
	for i, g := range goals {
		items[i] = goalItem(g)
	}
	return items, nil
}

// RepeatCycle 重复周期：删除本周期目标和评论，清空笔记，周期整体顺延一个月。
// 删除的数据不做归档。
func (s *GroupService) RepeatCycle(ctx context.Context, adminID, groupID int64) (*dto.RepeatCycleResponse, error) {
	if _, err := s.requireAdmin(groupID, adminID); err != nil {
		return nil, err
	}

	resp := &dto.RepeatCycleResponse{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)

		cycle, err := groups.GetCurrentCycle(groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCycleNotFound
			}
			return err
		}

		if resp.CommentsDeleted, err = s.commentRepo.WithTx(tx).DeleteByCycleID(cycle.ID); err != nil {
			return err
		}
		if resp.GoalsDeleted, err = groups.DeleteGoalsByCycle(cycle.ID); err != nil {
			return err
		}
		if err := groups.UpdateNotes(groupID, ""); err != nil {
			return err
		}

		cycle.StartDate = AddMonths(cycle.StartDate.UTC(), 1)
		cycle.EndDate = AddMonths(cycle.EndDate.UTC(), 1)
		cycle.Status = model.CycleStatusRepeat
		if err := groups.UpdateCycle(cycle); err != nil {
			return err
		}
		resp.Cycle = cycleItem(cycle)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"group_id":         groupID,
		"admin_id":         adminID,
		"goals_deleted":    resp.GoalsDeleted,
		"comments_deleted": resp.CommentsDeleted,
	}).Warn("cycle repeated, goals and comments removed")
	return resp, nil
}

type reminderTarget struct {
	userID    int64
	groupName string
	endDate   time.Time
}

// SendGoalReminders 提醒当前周期还没设定目标的成员，返回成功发送数
func (s *GroupService) SendGoalReminders(ctx context.Context) (int, error) {
	cycles, err := s.groupRepo.ListRunningCycles(s.now())
	if err != nil {
		return 0, err
	}

	var targets []reminderTarget
	for _, c := range cycles {
		group, err := s.groupRepo.GetByID(c.GroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return 0, err
		}
		members, err := s.groupRepo.ListMembersWithoutGoal(c.GroupID, c.ID)
		if err != nil {
			return 0, fmt.Errorf("list members without goal for group %d: %w", c.GroupID, err)
		}
		for _, m := range members {
			targets = append(targets, reminderTarget{userID: m.UserID, groupName: group.Name, endDate: c.EndDate})
		}
	}

	limit := s.cfg.Cron.Concurrency
	if limit <= 0 {
		limit = 8
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := s.notifier.Notify(gctx, target.userID, model.TemplateGoalReminder, map[string]string{
				"group":    target.groupName,
				"end_date": target.endDate.UTC().Format("2006-01-02"),
			})
			if err != nil {
				s.log.WithError(err).WithField("user_id", target.userID).Warn("goal reminder failed")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(sent.Load()), err
	}
	return int(sent.Load()), nil
}

func (s *GroupService) getGroup(groupID int64) (*model.Group, error) {
	group, err := s.groupRepo.GetByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

func (s *GroupService) requireMember(groupID, userID int64) (*model.Group, *model.GroupMember, error) {
	group, err := s.getGroup(groupID)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.groupRepo.GetMember(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotGroupMember
		}
		return nil, nil, err
	}
	return group, member, nil
}

func (s *GroupService) requireAdmin(groupID, userID int64) (*model.Group, error) {
	group, member, err := s.requireMember(groupID, userID)
	if err != nil {
		if errors.Is(err, ErrNotGroupMember) {
			return nil, ErrNotGroupAdmin
		}
		return nil, err
	}
	if member.Role != model.GroupRoleAdmin {
		return nil, ErrNotGroupAdmin
	}
	return group, nil
}

func (s *GroupService) currentCycle(groupID int64) (*model.Cycle, error) {
	cycle, err := s.groupRepo.GetCurrentCycle(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	return cycle, nil
}

// AddMonths 按日历月顺延，日期超出目标月天数时取月末（1月31日 → 2月28/29日）
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func groupItem(g *model.Group) *dto.GroupItem {
	return &dto.GroupItem{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatorID:   g.CreatorID,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func cycleItem(c *model.Cycle) *dto.CycleItem {
	return &dto.CycleItem{
		ID:        c.ID,
		StartDate: c.StartDate.UTC().Format(time.RFC3339),
		EndDate:   c.EndDate.UTC().Format(time.RFC3339),
		Status:    c.Status,
	}
}

func goalItem(g *model.Goal) *dto.GoalItem {
	return &dto.GoalItem{
		ID:          g.ID,
		CycleID:     g.CycleID,
		Title:       g.Title,
		Description: g.Description,
		Status:      string(g.Status),
		Member:      publicUser(g.Member),
		UpdatedAt:   g.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
