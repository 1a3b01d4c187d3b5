package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) WithTx(tx *gorm.DB) *GroupRepository {
	return &GroupRepository{db: tx}
}

func (r *GroupRepository) Create(group *model.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) GetByID(id int64) (*model.Group, error) {
	var group model.Group
	if err := r.db.Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByMember 获取用户加入的小组
func (r *GroupRepository) ListByMember(userID int64) ([]*model.Group, error) {
	var groups []*model.Group
	sub := r.db.Model(&model.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	err := r.db.Where("id IN (?)", sub).Order("id DESC").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) UpdateNotes(id int64, notes string) error {
	return r.db.Model(&model.Group{}).Where("id = ?", id).Update("notes", notes).Error
}

// ===== 成员 =====

func (r *GroupRepository) AddMember(m *model.GroupMember) error {
	return r.db.Create(m).Error
}

func (r *GroupRepository) GetMember(groupID, userID int64) (*model.GroupMember, error) {
	var m model.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GroupRepository) RemoveMember(groupID, userID int64) (int64, error) {
	result := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&model.GroupMember{})
	return result.RowsAffected, result.Error
}

func (r *GroupRepository) ListMembers(groupID int64) ([]*model.GroupMember, error) {
	var members []*model.GroupMember
	err := r.db.Preload("User").Where("group_id = ?", groupID).Order("id ASC").Find(&members).Error
	return members, err
}

// ===== 周期 =====

func (r *GroupRepository) CreateCycle(c *model.Cycle) error {
	return r.db.Create(c).Error
}

// GetCurrentCycle 小组最新的周期
func (r *GroupRepository) GetCurrentCycle(groupID int64) (*model.Cycle, error) {
	var c model.Cycle
	err := r.db.Where("group_id = ?", groupID).Order("id DESC").First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GroupRepository) UpdateCycle(c *model.Cycle) error {
	return r.db.Model(c).Updates(map[string]interface{}{
		"start_date": c.StartDate,
		"end_date":   c.EndDate,
		"status":     c.Status,
	}).Error
}

// ListRunningCycles 当前时间落在周期内的所有周期
func (r *GroupRepository) ListRunningCycles(now time.Time) ([]*model.Cycle, error) {
	var cycles []*model.Cycle
	err := r.db.Where("start_date <= ? AND end_date > ?", now, now).Order("id ASC").Find(&cycles).Error
	return cycles, err
}

// ===== 目标 =====

func (r *GroupRepository) CreateGoal(g *model.Goal) error {
	return r.db.Create(g).Error
}

func (r *GroupRepository) GetGoal(id int64) (*model.Goal, error) {
	var g model.Goal
	if err := r.db.Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) GetGoalByMember(cycleID, memberID int64) (*model.Goal, error) {
	var g model.Goal
	err := r.db.Where("cycle_id = ? AND member_id = ?", cycleID, memberID).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) UpdateGoalFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Goal{}).Where("id = ?", id).Updates(fields).Error
}

// MarkGoalRewarded 只会成功一次
func (r *GroupRepository) MarkGoalRewarded(id int64) (bool, error) {
	result := r.db.Model(&model.Goal{}).Where("id = ? AND rewarded = ?", id, false).Update("rewarded", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GroupRepository) ListGoals(cycleID int64) ([]*model.Goal, error) {
	var goals []*model.Goal
	err := r.db.Preload("Member").Where("cycle_id = ?", cycleID).Order("id ASC").Find(&goals).Error
	return goals, err
}

func (r *GroupRepository) DeleteGoalsByCycle(cycleID int64) (int64, error) {
	result := r.db.Where("cycle_id = ?", cycleID).Delete(&model.Goal{})
	return result.RowsAffected, result.Error
}

// ListMembersWithoutGoal 当前周期还没有设定目标的成员
func (r *GroupRepository) ListMembersWithoutGoal(groupID, cycleID int64) ([]*model.GroupMember, error) {
	var members []*model.GroupMember
	sub := r.db.Model(&model.Goal{}).Select("member_id").Where("cycle_id = ?", cycleID)
	err := r.db.Where("group_id = ? AND user_id NOT IN (?)", groupID, sub).Order("id ASC").Find(&members).Error
	return members, err
}
