package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) WithTx(tx *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: tx}
}

func (r *ChallengeRepository) Create(c *model.Challenge) error {
	return r.db.Create(c).Error
}

func (r *ChallengeRepository) GetByID(id int64) (*model.Challenge, error) {
	var c model.Challenge
	if err := r.db.Preload("Creator").Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListOpen 分页获取开放中的挑战
func (r *ChallengeRepository) ListOpen(page, pageSize int) ([]*model.Challenge, int64, error) {
	var challenges []*model.Challenge
	var total int64

	query := r.db.Model(&model.Challenge{}).Preload("Creator").Where("status = ?", model.ChallengeOpen)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("start_date DESC, id DESC").Offset(offset).Limit(pageSize).Find(&challenges).Error
	if err != nil {
		return nil, 0, err
	}
	return challenges, total, nil
}

func (r *ChallengeRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.Challenge{}).Where("id = ?", id).Update("status", status).Error
}

func (r *ChallengeRepository) CreateEnrollment(e *model.ChallengeEnrollment) error {
	return r.db.Create(e).Error
}

func (r *ChallengeRepository) GetEnrollment(challengeID, userID int64) (*model.ChallengeEnrollment, error) {
	var e model.ChallengeEnrollment
	err := r.db.Preload("User").Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ChallengeRepository) ListEnrollments(challengeID int64) ([]*model.ChallengeEnrollment, error) {
	var list []*model.ChallengeEnrollment
	err := r.db.Preload("User").Where("challenge_id = ?", challengeID).Order("id ASC").Find(&list).Error
	return list, err
}

// MarkCompleted 仅处理仍为 ENROLLED 的记录
func (r *ChallengeRepository) MarkCompleted(id int64, completedAt time.Time) (bool, error) {
	result := r.db.Model(&model.ChallengeEnrollment{}).
		Where("id = ? AND status = ?", id, model.EnrollmentEnrolled).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ChallengeRepository) SetCertificateURL(id int64, url string) error {
	return r.db.Model(&model.ChallengeEnrollment{}).Where("id = ?", id).Update("certificate_url", url).Error
}
