package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) GetTemplate(key string) (*model.EmailTemplate, error) {
	var tpl model.EmailTemplate
	if err := r.db.Where("`key` = ?", key).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// UpsertTemplate 按 key 插入或更新
func (r *NotificationRepository) UpsertTemplate(tpl *model.EmailTemplate) (bool, error) {
	existing, err := r.GetTemplate(tpl.Key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, r.db.Create(tpl).Error
	}
	if err != nil {
		return false, err
	}
	tpl.ID = existing.ID
	return false, r.db.Model(existing).Updates(map[string]interface{}{
		"subject": tpl.Subject,
		"body":    tpl.Body,
	}).Error
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// ListByUser 分页获取通知，unreadOnly 只看未读
func (r *NotificationRepository) ListByUser(userID int64, unreadOnly bool, page, pageSize int) ([]*model.Notification, int64, error) {
	var list []*model.Notification
	var total int64

	query := r.db.Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *NotificationRepository) CountUnread(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkRead 标记单条已读，返回是否找到
func (r *NotificationRepository) MarkRead(userID, id int64) (bool, error) {
	var n model.Notification
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, r.db.Model(&n).Update("is_read", true).Error
}

func (r *NotificationRepository) MarkAllRead(userID int64) (int64, error) {
	result := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
