package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LockByID 在当前事务内对用户行加写锁（SQLite 忽略锁子句）
func (r *UserRepository) LockByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByGithubID(githubID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("github_id = ?", githubID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByVerificationCode(code string) (*model.User, error) {
	var user model.User
	err := r.db.Where("verification_code = ?", code).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// Credit 增加余额与累计收入
func (r *UserRepository) Credit(id, amount int64) error {
	result := r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"jp_balance": gorm.Expr("jp_balance + ?", amount),
		"jp_earned":  gorm.Expr("jp_earned + ?", amount),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Debit 条件扣减，余额不足时不修改任何数据并返回 false
func (r *UserRepository) Debit(id, amount int64) (bool, error) {
	result := r.db.Model(&model.User{}).
		Where("id = ? AND jp_balance >= ?", id, amount).
		Updates(map[string]interface{}{
			"jp_balance": gorm.Expr("jp_balance - ?", amount),
			"jp_spent":   gorm.Expr("jp_spent + ?", amount),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateStreak 记录每日奖励领取
func (r *UserRepository) UpdateStreak(id int64, streak int, claimedAt time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"login_streak":         streak,
		"last_daily_reward_at": claimedAt,
	}).Error
}

func (r *UserRepository) SetMembershipTier(id int64, tier string) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("membership_tier", tier).Error
}

// ListByIDs 批量获取用户
func (r *UserRepository) ListByIDs(ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*model.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// ClaimDay 每个自然日只能成功一次：仅当上次领取早于 dayStart 时更新连续天数
func (r *UserRepository) ClaimDay(id int64, streak int, claimedAt, dayStart time.Time) (bool, error) {
	result := r.db.Model(&model.User{}).
		Where("id = ? AND (last_daily_reward_at IS NULL OR last_daily_reward_at < ?)", id, dayStart).
		Updates(map[string]interface{}{
			"login_streak":         streak,
			"last_daily_reward_at": claimedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
