package repository

import (
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

// CommentRepository 目标评论
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) WithTx(tx *gorm.DB) *CommentRepository {
	return &CommentRepository{db: tx}
}

// Create 创建评论
func (r *CommentRepository) Create(comment *model.GoalComment) error {
	return r.db.Create(comment).Error
}

// GetByIDWithAuthor 获取评论及作者信息
func (r *CommentRepository) GetByIDWithAuthor(id int64) (*model.GoalComment, error) {
	var comment model.GoalComment
	err := r.db.Preload("Author").Where("id = ?", id).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete 删除评论
func (r *CommentRepository) Delete(id int64) error {
	return r.db.Delete(&model.GoalComment{}, id).Error
}

// ListByGoalID 分页获取目标的评论（按时间正序）
func (r *CommentRepository) ListByGoalID(goalID int64, page, pageSize int) ([]*model.GoalComment, int64, error) {
	var comments []*model.GoalComment
	var total int64

	query := r.db.Model(&model.GoalComment{}).Preload("Author").Where("goal_id = ?", goalID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at ASC, id ASC").Offset(offset).Limit(pageSize).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// DeleteByCycleID 删除某周期所有目标下的评论
func (r *CommentRepository) DeleteByCycleID(cycleID int64) (int64, error) {
	sub := r.db.Model(&model.Goal{}).Select("id").Where("cycle_id = ?", cycleID)
	result := r.db.Where("goal_id IN (?)", sub).Delete(&model.GoalComment{})
	return result.RowsAffected, result.Error
}

// CountByCycleID 统计某周期的评论数
func (r *CommentRepository) CountByCycleID(cycleID int64) (int64, error) {
	var count int64
	sub := r.db.Model(&model.Goal{}).Select("id").Where("cycle_id = ?", cycleID)
	err := r.db.Model(&model.GoalComment{}).Where("goal_id IN (?)", sub).Count(&count).Error
	return count, err
}
