package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) WithTx(tx *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: tx}
}

// ===== Spotlight =====

func (r *ApplicationRepository) CreateSpotlight(app *model.SpotlightApplication) error {
	return r.db.Create(app).Error
}

func (r *ApplicationRepository) GetSpotlight(id int64) (*model.SpotlightApplication, error) {
	var app model.SpotlightApplication
	if err := r.db.Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// CountOpenSpotlights 统计用户处于非终态的申请数
func (r *ApplicationRepository) CountOpenSpotlights(userID int64, open []model.SpotlightStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.SpotlightApplication{}).
		Where("user_id = ? AND status IN ?", userID, open).
		Count(&count).Error
	return count, err
}

func (r *ApplicationRepository) ListSpotlightsByUser(userID int64) ([]*model.SpotlightApplication, error) {
	var apps []*model.SpotlightApplication
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&apps).Error
	return apps, err
}

// ListSpotlights 管理端分页，status 为空表示全部
func (r *ApplicationRepository) ListSpotlights(status model.SpotlightStatus, page, pageSize int) ([]*model.SpotlightApplication, int64, error) {
	var apps []*model.SpotlightApplication
	var total int64

	query := r.db.Model(&model.SpotlightApplication{}).Preload("User")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at ASC, id ASC").Offset(offset).Limit(pageSize).Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// ListActiveSpotlights 当前正在展示的申请
func (r *ApplicationRepository) ListActiveSpotlights(now time.Time) ([]*model.SpotlightApplication, error) {
	var apps []*model.SpotlightApplication
	err := r.db.Preload("User").
		Where("status = ? AND active_until > ?", model.SpotlightActive, now).
		Order("active_from ASC").Find(&apps).Error
	return apps, err
}

// ListSpotlightsToExpire 展示期已过的申请
func (r *ApplicationRepository) ListSpotlightsToExpire(now time.Time) ([]*model.SpotlightApplication, error) {
	var apps []*model.SpotlightApplication
	err := r.db.Where("status = ? AND active_until <= ?", model.SpotlightActive, now).Find(&apps).Error
	return apps, err
}

// UpdateSpotlightStatus 乐观并发：仅当状态仍为 from 时更新
func (r *ApplicationRepository) UpdateSpotlightStatus(id int64, from model.SpotlightStatus, fields map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.SpotlightApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ===== Prosperity Drop =====

func (r *ApplicationRepository) CreateProsperity(app *model.ProsperityDropApplication) error {
	return r.db.Create(app).Error
}

func (r *ApplicationRepository) GetProsperity(id int64) (*model.ProsperityDropApplication, error) {
	var app model.ProsperityDropApplication
	if err := r.db.Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) ListProsperityByUser(userID int64) ([]*model.ProsperityDropApplication, error) {
	var apps []*model.ProsperityDropApplication
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&apps).Error
	return apps, err
}

func (r *ApplicationRepository) ListProsperity(status model.ProsperityStatus, page, pageSize int) ([]*model.ProsperityDropApplication, int64, error) {
	var apps []*model.ProsperityDropApplication
	var total int64

	query := r.db.Model(&model.ProsperityDropApplication{}).Preload("User")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at ASC, id ASC").Offset(offset).Limit(pageSize).Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (r *ApplicationRepository) UpdateProsperityStatus(id int64, from model.ProsperityStatus, fields map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.ProsperityDropApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
