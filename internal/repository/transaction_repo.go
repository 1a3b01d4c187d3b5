package repository

import (
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create 追加流水
func (r *TransactionRepository) Create(txn *model.Transaction) error {
	return r.db.Create(txn).Error
}

// ListByUser 分页获取用户流水（最新在前）
func (r *TransactionRepository) ListByUser(userID int64, page, pageSize int) ([]*model.Transaction, int64, error) {
	var txns []*model.Transaction
	var total int64

	query := r.db.Model(&model.Transaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListByReference 获取同一笔转账的两条流水
func (r *TransactionRepository) ListByReference(reference string) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	err := r.db.Where("reference = ?", reference).Order("id ASC").Find(&txns).Error
	return txns, err
}

// SumByUser 按方向汇总，用于对账
func (r *TransactionRepository) SumByUser(userID int64, direction model.Direction) (int64, error) {
	var sum int64
	err := r.db.Model(&model.Transaction{}).
		Where("user_id = ? AND direction = ?", userID, direction).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
