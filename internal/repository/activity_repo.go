package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) WithTx(tx *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

// GetByKind 按类型获取活动
func (r *ActivityRepository) GetByKind(kind model.ActivityKind) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.Where("kind = ?", kind).First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// List 获取完整目录
func (r *ActivityRepository) List() ([]*model.Activity, error) {
	var activities []*model.Activity
	err := r.db.Order("id ASC").Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Activity{}).Where("id = ?", id).Updates(fields).Error
}

// Upsert 按 kind 插入或更新，供初始化脚本使用
func (r *ActivityRepository) Upsert(activity *model.Activity) (bool, error) {
	existing, err := r.GetByKind(activity.Kind)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.Create(activity).Error
	}
	if err != nil {
		return false, err
	}
	activity.ID = existing.ID
	return false, r.db.Model(existing).Updates(map[string]interface{}{
		"name":      activity.Name,
		"direction": activity.Direction,
	}).Error
}
