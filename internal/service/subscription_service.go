package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/fsm"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/metrics"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/payment"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("no active subscription")
	ErrSubscriptionExists   = errors.New("you already have a subscription")
	ErrNotRecurring         = errors.New("subscription has no recurring mandate")
	ErrGatewayFailed        = errors.New("payment gateway request failed")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
)

// SubscriptionFlow 订阅状态流转
var SubscriptionFlow = fsm.New("subscription", map[model.SubscriptionStatus][]model.SubscriptionStatus{
	model.SubscriptionPending:             {model.SubscriptionActive, model.SubscriptionCancelled},
	model.SubscriptionActive:              {model.SubscriptionCancellationPending, model.SubscriptionCancelled},
	model.SubscriptionCancellationPending: {model.SubscriptionCancelled},
	model.SubscriptionFreeGrant:           {model.SubscriptionActive, model.SubscriptionCancelled},
})

// webhook 处理结果，用于日志和指标
const (
	webhookProcessed = "processed"
	webhookIgnored   = "ignored"
	webhookDuplicate = "duplicate"
)

// EventDeduper 事件去重
type EventDeduper interface {
	Claim(ctx context.Context, scope, id string) (bool, error)
	Release(ctx context.Context, scope, id string) error
}

type SubscriptionService struct {
	db       *gorm.DB
	subRepo  *repository.SubscriptionRepository
	userRepo *repository.UserRepository
	gateway  payment.Gateway
	verifier *payment.Verifier
	deduper  EventDeduper
	notifier Notifier
	cfg      *config.Config
	now      func() time.Time
	log      *logrus.Entry
}

func NewSubscriptionService(
	db *gorm.DB,
	subRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	gateway payment.Gateway,
	deduper EventDeduper,
	notifier Notifier,
	cfg *config.Config,
) *SubscriptionService {
	tolerance := time.Duration(cfg.Payment.WebhookTolerance) * time.Second
	s := &SubscriptionService{
		db:       db,
		subRepo:  subRepo,
		userRepo: userRepo,
		gateway:  gateway,
		verifier: payment.NewVerifier(cfg.Payment.WebhookSecret, tolerance),
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Component("subscription"),
	}
	if cfg.Payment.DedupeEvents {
		s.deduper = deduper
	}
	return s
}

// ListPlans 可购买套餐
func (s *SubscriptionService) ListPlans() ([]*dto.PlanItem, error) {
	plans, err := s.subRepo.ListActivePlans()
	if err != nil {
		return nil, err
	}
	items := make([]*dto.PlanItem, len(plans))
	for i, p := range plans {
		items[i] = planItem(p)
	}
	return items, nil
}

// GetCurrent 当前订阅
func (s *SubscriptionService) GetCurrent(userID int64) (*dto.SubscriptionInfo, error) {
	sub, err := s.subRepo.GetLiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return subscriptionInfo(sub), nil
}

// Checkout 在网关创建定期扣款授权，本地生成 PENDING 订阅
func (s *SubscriptionService) Checkout(ctx context.Context, userID, planID int64) (*dto.CheckoutResponse, error) {
	plan, err := s.activePlan(planID)
	if err != nil {
		return nil, err
	}

	if _, err := s.subRepo.GetLiveByUser(userID); err == nil {
		return nil, ErrSubscriptionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp, err := s.gateway.CreateSubscription(ctx, &payment.CreateSubscriptionRequest{
		SubscriptionID: uuid.NewString(),
		PlanID:         plan.GatewayPlanID,
		CustomerID:     fmt.Sprintf("%d", user.ID),
		CustomerEmail:  derefString(user.Email),
		ReturnURL:      s.cfg.Payment.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	sub := &model.Subscription{
		UserID: userID,
		PlanID: plan.ID,
		Status: model.SubscriptionPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.subRepo.WithTx(tx)
		mandate := &model.Mandate{
			UserID:                userID,
			GatewaySubscriptionID: resp.SubscriptionID,
			Status:                resp.Status,
			AuthorizationLink:     resp.AuthorizationLink,
		}
		if err := subs.CreateMandate(mandate); err != nil {
			return err
		}
		sub.MandateID = &mandate.ID
		return subs.Create(sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":         userID,
		"subscription_id": sub.ID,
		"gateway_id":      resp.SubscriptionID,
	}).Info("subscription checkout created")

	return &dto.CheckoutResponse{
		SubscriptionID:    sub.ID,
		Status:            string(sub.Status),
		AuthorizationLink: resp.AuthorizationLink,
	}, nil
}

// Cancel 先调用网关取消，只有网关成功才改本地状态：
// 已生效的订阅进入 CANCELLATION_PENDING，未完成授权的 PENDING 直接 CANCELLED
func (s *SubscriptionService) Cancel(ctx context.Context, userID int64) (*dto.SubscriptionInfo, error) {
	sub, err := s.subRepo.GetLiveByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	target := model.SubscriptionCancellationPending
	if sub.Status == model.SubscriptionPending {
		target = model.SubscriptionCancelled
	}
	if err := SubscriptionFlow.Validate(sub.Status, target); err != nil {
		return nil, err
	}
	if sub.Mandate == nil {
		return nil, ErrNotRecurring
	}

	if err := s.gateway.CancelSubscription(ctx, sub.Mandate.GatewaySubscriptionID); err != nil {
		s.log.WithError(err).WithField("subscription_id", sub.ID).Warn("gateway cancel failed, local state unchanged")
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.subRepo.WithTx(tx)
		if target == model.SubscriptionCancelled {
			if err := s.cancel(tx, sub); err != nil {
				return err
			}
		} else {
			ok, err := subs.UpdateStatus(sub.ID, sub.Status, map[string]interface{}{
				"status": target,
			})
			if err != nil {
				return err
			}
			if !ok {
				return ErrStatusConflict
			}
		}
		return subs.UpdateMandateStatus(sub.Mandate.ID, "CANCELLED")
	})
	if err != nil {
		return nil, err
	}

	sub.Status = target
	s.log.WithFields(logrus.Fields{
		"user_id":         userID,
		"subscription_id": sub.ID,
		"status":          target,
	}).Info("subscription cancellation requested")
	return subscriptionInfo(sub), nil
}

// Purchase 创建一次性订单
func (s *SubscriptionService) Purchase(ctx context.Context, userID, planID int64) (*dto.PurchaseResponse, error) {
	plan, err := s.activePlan(planID)
	if err != nil {
		return nil, err
	}
	// 存在定期扣款订阅时不允许再买一次性套餐，避免两条订阅并存
	if live, err := s.subRepo.GetLiveByUser(userID); err == nil {
		if live.MandateID != nil {
			return nil, ErrSubscriptionExists
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	orderID := uuid.NewString()
	resp, err := s.gateway.CreateOrder(ctx, &payment.CreateOrderRequest{
		OrderID:       orderID,
		Amount:        plan.Price,
		Currency:      plan.Currency,
		CustomerID:    fmt.Sprintf("%d", user.ID),
		CustomerEmail: derefString(user.Email),
		ReturnURL:     s.cfg.Payment.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	purchase := &model.Purchase{
		UserID:         userID,
		PlanID:         plan.ID,
		OrderID:        orderID,
		Amount:         plan.Price,
		Status:         model.PurchasePending,
		PaymentSession: resp.PaymentSession,
	}
	if err := s.subRepo.WithTx(s.db.WithContext(ctx)).CreatePurchase(purchase); err != nil {
		return nil, err
	}

	return &dto.PurchaseResponse{
		OrderID:        purchase.OrderID,
		Amount:         purchase.Amount,
		Status:         purchase.Status,
		PaymentSession: purchase.PaymentSession,
	}, nil
}

// HandleWebhook 校验签名并处理网关事件，未知事件类型直接忽略
func (s *SubscriptionService) HandleWebhook(ctx context.Context, timestamp, signature string, body []byte) (string, error) {
	if err := s.verifier.Verify(timestamp, signature, body); err != nil {
		metrics.RecordWebhook("unknown", "unauthorized")
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		metrics.RecordWebhook("unknown", "invalid")
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	log := s.log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	if s.deduper != nil && event.ID != "" {
		first, err := s.deduper.Claim(ctx, "payment", event.ID)
		if err != nil {
			return "", err
		}
		if !first {
			log.Info("duplicate webhook event skipped")
			metrics.RecordWebhook(event.Type, webhookDuplicate)
			return webhookDuplicate, nil
		}
	}

	result, err := s.dispatch(ctx, event)
	if err != nil {
		if s.deduper != nil && event.ID != "" {
			if rerr := s.deduper.Release(ctx, "payment", event.ID); rerr != nil {
				log.WithError(rerr).Warn("failed to release dedupe marker")
			}
		}
		metrics.RecordWebhook(event.Type, "error")
		return "", err
	}

	log.WithField("result", result).Info("webhook event handled")
	metrics.RecordWebhook(event.Type, result)
	return result, nil
}

func (s *SubscriptionService) dispatch(ctx context.Context, event *payment.Event) (string, error) {
	switch event.Type {
	case payment.EventSubscriptionStatusChanged:
		var data payment.SubscriptionEventData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return s.onStatusChanged(ctx, &data)
	case payment.EventSubscriptionPaymentSuccess:
		var data payment.SubscriptionEventData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return s.onPaymentSuccess(ctx, &data)
	case payment.EventSubscriptionPaymentFailed:
		var data payment.SubscriptionEventData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return s.onPaymentFailed(ctx, &data)
	case payment.EventOrderPaid:
		var data payment.OrderEventData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return s.onOrderPaid(ctx, &data)
	default:
		return webhookIgnored, nil
	}
}

// subscriptionByGatewayID 通过网关订阅 ID 找到本地订阅
func (s *SubscriptionService) subscriptionByGatewayID(tx *gorm.DB, gatewayID string) (*model.Subscription, error) {
	subs := s.subRepo.WithTx(tx)
	mandate, err := subs.GetMandateByGatewayID(gatewayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	sub, err := subs.GetByMandateID(mandate.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) onStatusChanged(ctx context.Context, data *payment.SubscriptionEventData) (string, error) {
	var notify func()
	result := webhookProcessed

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subscriptionByGatewayID(tx, data.SubscriptionID)
		if err != nil {
			return err
		}
		if sub.Mandate != nil && data.Status != "" {
			if err := s.subRepo.WithTx(tx).UpdateMandateStatus(sub.Mandate.ID, data.Status); err != nil {
				return err
			}
		}

		switch data.Status {
		case "ACTIVE":
			if sub.Status == model.SubscriptionActive {
				result = webhookIgnored
				return nil
			}
			if err := s.activate(tx, sub); err != nil {
				return err
			}
			notify = s.activatedNotice(ctx, sub)
		case "CANCELLED", "CANCELED":
			if sub.Status == model.SubscriptionCancelled {
				result = webhookIgnored
				return nil
			}
			if err := s.cancel(tx, sub); err != nil {
				return err
			}
			notify = s.cancelledNotice(ctx, sub)
		default:
			result = webhookIgnored
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if notify != nil {
		notify()
	}
	return result, nil
}

func (s *SubscriptionService) onPaymentSuccess(ctx context.Context, data *payment.SubscriptionEventData) (string, error) {
	var notify func()
	result := webhookProcessed

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subscriptionByGatewayID(tx, data.SubscriptionID)
		if err != nil {
			return err
		}

		if err := s.subRepo.WithTx(tx).CreatePayment(&model.Payment{
			SubscriptionID:   sub.ID,
			UserID:           sub.UserID,
			GatewayPaymentID: data.PaymentID,
			Amount:           data.PaymentAmount,
			Status:           "SUCCESS",
		}); err != nil {
			return err
		}

		// 取消流程中的扣款只记账，不恢复订阅
		if sub.Status != model.SubscriptionActive && !SubscriptionFlow.Can(sub.Status, model.SubscriptionActive) {
			result = webhookIgnored
			return nil
		}
		if err := s.activate(tx, sub); err != nil {
			return err
		}
		notify = s.activatedNotice(ctx, sub)
		return nil
	})
	if err != nil {
		return "", err
	}
	if notify != nil {
		notify()
	}
	return result, nil
}

func (s *SubscriptionService) onPaymentFailed(ctx context.Context, data *payment.SubscriptionEventData) (string, error) {
	var sub *model.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = s.subscriptionByGatewayID(tx, data.SubscriptionID)
		if err != nil {
			return err
		}
		return s.subRepo.WithTx(tx).CreatePayment(&model.Payment{
			SubscriptionID:   sub.ID,
			UserID:           sub.UserID,
			GatewayPaymentID: data.PaymentID,
			Amount:           data.PaymentAmount,
			Status:           "FAILED",
		})
	})
	if err != nil {
		return "", err
	}

	NotifyQuietly(ctx, s.notifier, s.log, sub.UserID, model.TemplatePaymentFailed, map[string]string{
		"plan":   planName(sub),
		"reason": data.FailureReason,
	})
	return webhookProcessed, nil
}

// onOrderPaid 一次性订单支付成功：授予 FREE_GRANT 订阅。
// 已有生效中的订阅（FREE_GRANT、ACTIVE、CANCELLATION_PENDING）时顺延其 end_date，不再新建
func (s *SubscriptionService) onOrderPaid(ctx context.Context, data *payment.OrderEventData) (string, error) {
	result := webhookProcessed
	var granted *model.Subscription

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.subRepo.WithTx(tx)
		purchase, err := subs.GetPurchaseByOrderID(data.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}

		now := s.now()
		ok, err := subs.MarkPurchasePaid(purchase.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			result = webhookIgnored
			return nil
		}

		plan, err := subs.GetPlan(purchase.PlanID)
		if err != nil {
			return err
		}

		live, err := subs.GetLiveByUser(purchase.UserID)
		switch {
		case err == nil && live.Status != model.SubscriptionPending:
			end := extendFrom(live.EndDate, now, plan.IntervalMonths)
			if _, err := subs.UpdateStatus(live.ID, live.Status, map[string]interface{}{"end_date": end}); err != nil {
				return err
			}
			live.EndDate = &end
			granted = live
		case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
			end := now.AddDate(0, plan.IntervalMonths, 0)
			purchaseID := purchase.ID
			granted = &model.Subscription{
				UserID:              purchase.UserID,
				PlanID:              plan.ID,
				Status:              model.SubscriptionFreeGrant,
				StartDate:           &now,
				EndDate:             &end,
				GrantedByPurchaseID: &purchaseID,
				Plan:                plan,
			}
			if err := subs.Create(granted); err != nil {
				return err
			}
		default:
			return err
		}

		return s.userRepo.WithTx(tx).SetMembershipTier(purchase.UserID, plan.Tier)
	})
	if err != nil {
		return "", err
	}

	if granted != nil {
		s.activatedNotice(ctx, granted)()
	}
	return result, nil
}

// activate 激活或续期：end_date 从 max(end_date, now) 顺延一个计费周期
func (s *SubscriptionService) activate(tx *gorm.DB, sub *model.Subscription) error {
	if sub.Status != model.SubscriptionActive {
		if err := SubscriptionFlow.Validate(sub.Status, model.SubscriptionActive); err != nil {
			return err
		}
	}

	plan := sub.Plan
	if plan == nil {
		var err error
		if plan, err = s.subRepo.WithTx(tx).GetPlan(sub.PlanID); err != nil {
			return err
		}
		sub.Plan = plan
	}

	now := s.now()
	end := extendFrom(sub.EndDate, now, plan.IntervalMonths)
	fields := map[string]interface{}{
		"status":   model.SubscriptionActive,
		"end_date": end,
	}
	if sub.StartDate == nil {
		fields["start_date"] = now
		sub.StartDate = &now
	}

	ok, err := s.subRepo.WithTx(tx).UpdateStatus(sub.ID, sub.Status, fields)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStatusConflict
	}
	sub.Status = model.SubscriptionActive
	sub.EndDate = &end

	return s.userRepo.WithTx(tx).SetMembershipTier(sub.UserID, plan.Tier)
}

func (s *SubscriptionService) cancel(tx *gorm.DB, sub *model.Subscription) error {
	if err := SubscriptionFlow.Validate(sub.Status, model.SubscriptionCancelled); err != nil {
		return err
	}
	ok, err := s.subRepo.WithTx(tx).UpdateStatus(sub.ID, sub.Status, map[string]interface{}{
		"status": model.SubscriptionCancelled,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrStatusConflict
	}
	sub.Status = model.SubscriptionCancelled

	// 仍有其他生效订阅时保留其等级
	tier := model.TierFree
	other, err := s.subRepo.WithTx(tx).GetEntitledByUser(sub.UserID, sub.ID)
	switch {
	case err == nil && other.Plan != nil:
		tier = other.Plan.Tier
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return s.userRepo.WithTx(tx).SetMembershipTier(sub.UserID, tier)
}

// ExpireSubscriptions 关闭到期的 CANCELLATION_PENDING / FREE_GRANT 订阅
func (s *SubscriptionService) ExpireSubscriptions(ctx context.Context) (int, error) {
	subs, err := s.subRepo.ListExpired(s.now(), []model.SubscriptionStatus{
		model.SubscriptionCancellationPending,
		model.SubscriptionFreeGrant,
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		sub := sub
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.cancel(tx, sub)
		})
		if errors.Is(err, ErrStatusConflict) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("expire subscription %d: %w", sub.ID, err)
		}
		expired++
		s.cancelledNotice(ctx, sub)()
	}
	return expired, nil
}

func (s *SubscriptionService) ListPurchases(userID int64) ([]*model.Purchase, error) {
	return s.subRepo.ListPurchasesByUser(userID)
}

func (s *SubscriptionService) activePlan(planID int64) (*model.SubscriptionPlan, error) {
	plan, err := s.subRepo.GetPlan(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *SubscriptionService) activatedNotice(ctx context.Context, sub *model.Subscription) func() {
	vars := map[string]string{"plan": planName(sub)}
	if sub.EndDate != nil {
		vars["end_date"] = sub.EndDate.UTC().Format("2006-01-02")
	}
	userID := sub.UserID
	return func() {
		NotifyQuietly(ctx, s.notifier, s.log, userID, model.TemplateSubscriptionActivated, vars)
	}
}

func (s *SubscriptionService) cancelledNotice(ctx context.Context, sub *model.Subscription) func() {
	vars := map[string]string{"plan": planName(sub)}
	userID := sub.UserID
	return func() {
		NotifyQuietly(ctx, s.notifier, s.log, userID, model.TemplateSubscriptionCancelled, vars)
	}
}

// extendFrom 从 max(end, now) 顺延 months 个月
func extendFrom(end *time.Time, now time.Time, months int) time.Time {
	base := now
	if end != nil && end.After(now) {
		base = end.UTC()
	}
	if months <= 0 {
		months = 1
	}
	return AddMonths(base, months)
}

func planName(sub *model.Subscription) string {
	if sub.Plan != nil {
		return sub.Plan.Name
	}
	return "subscription"
}

func planItem(p *model.SubscriptionPlan) *dto.PlanItem {
	return &dto.PlanItem{
		ID:             p.ID,
		Name:           p.Name,
		Tier:           p.Tier,
		Price:          p.Price,
		Currency:       p.Currency,
		IntervalMonths: p.IntervalMonths,
	}
}

func subscriptionInfo(sub *model.Subscription) *dto.SubscriptionInfo {
	info := &dto.SubscriptionInfo{
		ID:        sub.ID,
		Status:    string(sub.Status),
		Recurring: sub.MandateID != nil,
	}
	if sub.Plan != nil {
		info.Plan = planItem(sub.Plan)
	}
	if sub.StartDate != nil {
		info.StartDate = sub.StartDate.UTC().Format(time.RFC3339)
	}
	if sub.EndDate != nil {
		info.EndDate = sub.EndDate.UTC().Format(time.RFC3339)
	}
	return info
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
