package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
)

// 尚未结束的订阅状态
var liveSubscriptionStatuses = []model.SubscriptionStatus{
	model.SubscriptionPending,
	model.SubscriptionActive,
	model.SubscriptionCancellationPending,
	model.SubscriptionFreeGrant,
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: tx}
}

// ListActivePlans 获取可购买套餐
func (r *SubscriptionRepository) ListActivePlans() ([]*model.SubscriptionPlan, error) {
	var plans []*model.SubscriptionPlan
	err := r.db.Where("active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *SubscriptionRepository) GetPlan(id int64) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := r.db.Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepository) GetPlanByName(name string) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := r.db.Where("name = ?", name).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *SubscriptionRepository) CreatePlan(plan *model.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *SubscriptionRepository) CreateMandate(m *model.Mandate) error {
	return r.db.Create(m).Error
}

func (r *SubscriptionRepository) GetMandateByGatewayID(gatewayID string) (*model.Mandate, error) {
	var m model.Mandate
	if err := r.db.Where("gateway_subscription_id = ?", gatewayID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SubscriptionRepository) UpdateMandateStatus(id int64, status string) error {
	return r.db.Model(&model.Mandate{}).Where("id = ?", id).Update("status", status).Error
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByID 获取订阅及套餐、授权信息
func (r *SubscriptionRepository) GetByID(id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Preload("Plan").Preload("Mandate").Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByMandateID 根据网关授权查找订阅
func (r *SubscriptionRepository) GetByMandateID(mandateID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Preload("Plan").Preload("Mandate").
		Where("mandate_id = ?", mandateID).
		Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetLiveByUser 获取用户当前未结束的订阅，定期扣款订阅优先
func (r *SubscriptionRepository) GetLiveByUser(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Preload("Plan").Preload("Mandate").
		Where("user_id = ? AND status IN ?", userID, liveSubscriptionStatuses).
		Order("mandate_id IS NULL ASC").Order("id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetEntitledByUser 获取除 excludeID 外仍享有会员权益的订阅（PENDING 不算）
func (r *SubscriptionRepository) GetEntitledByUser(userID, excludeID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND id <> ? AND status IN ?", userID, excludeID, []model.SubscriptionStatus{
			model.SubscriptionActive,
			model.SubscriptionCancellationPending,
			model.SubscriptionFreeGrant,
		}).
		Order("id DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CountLiveByUser 未结束订阅数量
func (r *SubscriptionRepository) CountLiveByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("user_id = ? AND status IN ?", userID, liveSubscriptionStatuses).
		Count(&count).Error
	return count, err
}

// UpdateStatus 仅当状态仍为 from 时更新，返回是否更新成功
func (r *SubscriptionRepository) UpdateStatus(id int64, from model.SubscriptionStatus, fields map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListExpired 获取到期需要关闭的订阅
func (r *SubscriptionRepository) ListExpired(now time.Time, statuses []model.SubscriptionStatus) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Preload("Plan").
		Where("status IN ? AND end_date IS NOT NULL AND end_date < ?", statuses, now).
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) CreatePayment(p *model.Payment) error {
	return r.db.Create(p).Error
}

func (r *SubscriptionRepository) ListPayments(subscriptionID int64) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.Where("subscription_id = ?", subscriptionID).Order("id ASC").Find(&payments).Error
	return payments, err
}

func (r *SubscriptionRepository) CreatePurchase(p *model.Purchase) error {
	return r.db.Create(p).Error
}

func (r *SubscriptionRepository) GetPurchaseByOrderID(orderID string) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPurchasePaid 仅处理未支付订单，返回是否本次标记
func (r *SubscriptionRepository) MarkPurchasePaid(id int64, paidAt time.Time) (bool, error) {
	result := r.db.Model(&model.Purchase{}).
		Where("id = ? AND status = ?", id, model.PurchasePending).
		Updates(map[string]interface{}{
			"status":  model.PurchasePaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *SubscriptionRepository) ListPurchasesByUser(userID int64) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&purchases).Error
	return purchases, err
}
