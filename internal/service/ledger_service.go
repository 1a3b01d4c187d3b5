package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/metrics"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrInsufficientBalance = errors.New("Insufficient JP")
	ErrActivityNotFound    = errors.New("activity not found")
	ErrActivityDirection   = errors.New("activity direction does not match the operation")
	ErrActivityNotAllowed  = errors.New("activity cannot be used here")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrSelfTransfer        = errors.New("cannot transfer JP to yourself")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyClaimed      = errors.New("daily reward already claimed today")
)

// TransferResult 一次转账产生的两条流水
type TransferResult struct {
	Reference string
	Debit     *model.Transaction
	Credit    *model.Transaction
}

// LedgerService 积分账本。所有余额变动都经过这里，并保证 balance = earned - spent。
type LedgerService struct {
	db           *gorm.DB
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
	txnRepo      *repository.TransactionRepository
	now          func() time.Time
	log          *logrus.Entry
}

func NewLedgerService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	activityRepo *repository.ActivityRepository,
	txnRepo *repository.TransactionRepository,
) *LedgerService {
	return &LedgerService{
		db:           db,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		txnRepo:      txnRepo,
		now:          func() time.Time { return time.Now().UTC() },
		log:          logger.Component("ledger"),
	}
}

const directionTransfer model.Direction = "TRANSFER"

type ledgerOpsKey struct{}

// ledgerOps 已在事务内完成、等待提交的账本操作
type ledgerOps struct {
	mu         sync.Mutex
	directions []model.Direction
}

// Atomic 在新事务中执行 fn。fn 内用传入的 ctx 和 tx 调用的账本操作，提交成功后才计入指标
func (s *LedgerService) Atomic(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	ops := &ledgerOps{}
	ctx = context.WithValue(ctx, ledgerOpsKey{}, ops)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})
	if err != nil {
		return err
	}
	for _, d := range ops.directions {
		s.record(d, nil)
	}
	return nil
}

// finish 记录账本操作结果。加入外部事务的成功操作推迟到 Atomic 提交后；
// 不是由 Atomic 开启的外部事务无法确认提交，不计入
func (s *LedgerService) finish(ctx context.Context, joined bool, direction model.Direction, err error) {
	if err != nil || !joined {
		s.record(direction, err)
		return
	}
	if ops, ok := ctx.Value(ledgerOpsKey{}).(*ledgerOps); ok {
		ops.mu.Lock()
		ops.directions = append(ops.directions, direction)
		ops.mu.Unlock()
	}
}

// LockAccount 锁定用户账户直到 tx 结束，串行化同一用户的“先检查再扣费”流程
func (s *LedgerService) LockAccount(tx *gorm.DB, userID int64) error {
	if _, err := s.userRepo.WithTx(tx).LockByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lock user %d: %w", userID, err)
	}
	return nil
}

// inTx tx 为空时开启新事务，否则加入调用方事务
func (s *LedgerService) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// AssignJP 按活动目录给用户加分，override 非空时替代目录金额
func (s *LedgerService) AssignJP(ctx context.Context, tx *gorm.DB, userID int64, kind model.ActivityKind, override *int64) (*model.Transaction, error) {
	var txn *model.Transaction
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		activity, amount, err := s.resolve(tx, kind, model.DirectionCredit, override)
		if err != nil {
			return err
		}
		txn, err = s.apply(tx, userID, activity, amount, "")
		return err
	})
	s.finish(ctx, tx != nil, model.DirectionCredit, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// DeductJP 按活动目录扣分；余额不足时返回 ErrInsufficientBalance 且不做任何修改
func (s *LedgerService) DeductJP(ctx context.Context, tx *gorm.DB, userID int64, kind model.ActivityKind, override *int64) (*model.Transaction, error) {
	var txn *model.Transaction
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		activity, amount, err := s.resolve(tx, kind, model.DirectionDebit, override)
		if err != nil {
			return err
		}
		txn, err = s.apply(tx, userID, activity, amount, "")
		return err
	})
	s.finish(ctx, tx != nil, model.DirectionDebit, err)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transfer 从 fromID 扣除 amount 并加给 toID，两条流水共享同一个 reference
func (s *LedgerService) Transfer(ctx context.Context, tx *gorm.DB, fromID, toID int64, debitKind, creditKind model.ActivityKind, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromID == toID {
		return nil, ErrSelfTransfer
	}

	result := &TransferResult{Reference: uuid.NewString()}
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		debitActivity, _, err := s.resolve(tx, debitKind, model.DirectionDebit, &amount)
		if err != nil {
			return err
		}
		creditActivity, _, err := s.resolve(tx, creditKind, model.DirectionCredit, &amount)
		if err != nil {
			return err
		}

		result.Debit, err = s.apply(tx, fromID, debitActivity, amount, result.Reference)
		if err != nil {
			return err
		}
		result.Credit, err = s.apply(tx, toID, creditActivity, amount, result.Reference)
		return err
	})
	s.finish(ctx, tx != nil, directionTransfer, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LedgerService) resolve(tx *gorm.DB, kind model.ActivityKind, direction model.Direction, override *int64) (*model.Activity, int64, error) {
	activity, err := s.activityRepo.WithTx(tx).GetByKind(kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrActivityNotFound
		}
		return nil, 0, fmt.Errorf("load activity %s: %w", kind, err)
	}
	if !activity.Active {
		return nil, 0, ErrActivityNotFound
	}
	if activity.Direction != direction {
		return nil, 0, ErrActivityDirection
	}

	amount := activity.JPAmount
	if override != nil {
		amount = *override
	}
	if amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}
	return activity, amount, nil
}

// apply 修改余额并追加流水，必须在事务中调用
func (s *LedgerService) apply(tx *gorm.DB, userID int64, activity *model.Activity, amount int64, reference string) (*model.Transaction, error) {
	users := s.userRepo.WithTx(tx)

	switch activity.Direction {
	case model.DirectionCredit:
		if err := users.Credit(userID, amount); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("credit user %d: %w", userID, err)
		}
	case model.DirectionDebit:
		ok, err := users.Debit(userID, amount)
		if err != nil {
			return nil, fmt.Errorf("debit user %d: %w", userID, err)
		}
		if !ok {
			if _, err := users.GetByID(userID); errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, ErrInsufficientBalance
		}
	default:
		return nil, ErrActivityDirection
	}

	user, err := users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("reload user %d: %w", userID, err)
	}

	txn := &model.Transaction{
		UserID:       userID,
		ActivityID:   activity.ID,
		Kind:         activity.Kind,
		Direction:    activity.Direction,
		Amount:       amount,
		BalanceAfter: user.JPBalance,
		Reference:    reference,
		CreatedAt:    s.now(),
	}
	if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"kind":      activity.Kind,
		"direction": activity.Direction,
		"amount":    amount,
		"balance":   user.JPBalance,
	}).Debug("ledger entry written")

	return txn, nil
}

func (s *LedgerService) record(direction model.Direction, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInsufficientBalance):
		result = "insufficient"
	default:
		result = "error"
	}
	metrics.RecordLedger(string(direction), result)
}

// Spend 用户主动消费自己的 DEBIT 活动
func (s *LedgerService) Spend(ctx context.Context, userID int64, kind model.ActivityKind) (*model.Transaction, error) {
	if kind == model.ActivityAdminPenalty {
		return nil, ErrActivityNotAllowed
	}
	return s.DeductJP(ctx, nil, userID, kind, nil)
}

// ClaimDailyReward 领取每日登录奖励，连续第 7、30 天额外奖励
func (s *LedgerService) ClaimDailyReward(ctx context.Context, userID int64) (*dto.DailyRewardResponse, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	resp := &dto.DailyRewardResponse{}
	err := s.Atomic(ctx, func(ctx context.Context, tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		user, err := users.GetByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		streak := 1
		if user.LastDailyRewardAt != nil {
			last := user.LastDailyRewardAt.UTC()
			if !last.Before(dayStart) {
				return ErrAlreadyClaimed
			}
			if !last.Before(dayStart.AddDate(0, 0, -1)) {
				streak = user.LoginStreak + 1
			}
		}

		ok, err := users.ClaimDay(userID, streak, now, dayStart)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyClaimed
		}

		kinds := []model.ActivityKind{model.ActivityDailyLogin}
		switch streak {
		case 7:
			kinds = append(kinds, model.ActivityStreak7Days)
		case 30:
			kinds = append(kinds, model.ActivityStreak30Days)
		}

		for _, kind := range kinds {
			txn, err := s.AssignJP(ctx, tx, userID, kind, nil)
			if err != nil {
				return err
			}
			resp.Transactions = append(resp.Transactions, ToTransactionItem(txn))
			resp.Balance = txn.BalanceAfter
		}
		resp.Streak = streak
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSummary 积分概览
func (s *LedgerService) GetSummary(userID int64) (*dto.JPSummary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toJPSummary(user), nil
}

// ListTransactions 分页获取流水
func (s *LedgerService) ListTransactions(userID int64, page, pageSize int) ([]*dto.TransactionItem, int64, error) {
	txns, total, err := s.txnRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*dto.TransactionItem, len(txns))
	for i, t := range txns {
		items[i] = ToTransactionItem(t)
	}
	return items, total, nil
}

// ListActivities 活动目录
func (s *LedgerService) ListActivities() ([]*model.Activity, error) {
	return s.activityRepo.List()
}

// UpdateActivity 管理员修改活动金额或启用状态
func (s *LedgerService) UpdateActivity(kind model.ActivityKind, req *dto.UpdateActivityRequest) (*model.Activity, error) {
	activity, err := s.activityRepo.GetByKind(kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	fields := make(map[string]interface{})
	if req.JPAmount != nil {
		if *req.JPAmount <= 0 {
			return nil, ErrInvalidAmount
		}
		fields["jp_amount"] = *req.JPAmount
		activity.JPAmount = *req.JPAmount
	}
	if req.Active != nil {
		fields["active"] = *req.Active
		activity.Active = *req.Active
	}
	if len(fields) == 0 {
		return activity, nil
	}

	if err := s.activityRepo.UpdateFields(activity.ID, fields); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"kind": kind, "changes": fields}).Info("activity updated")
	return activity, nil
}

func toJPSummary(u *model.User) *dto.JPSummary {
	summary := &dto.JPSummary{
		Balance:     u.JPBalance,
		Earned:      u.JPEarned,
		Spent:       u.JPSpent,
		LoginStreak: u.LoginStreak,
	}
	if u.LastDailyRewardAt != nil {
		summary.LastClaimAt = u.LastDailyRewardAt.UTC().Format(time.RFC3339)
	}
	return summary
}

// ToTransactionItem 流水转为响应结构
func ToTransactionItem(t *model.Transaction) *dto.TransactionItem {
	return &dto.TransactionItem{
		ID:           t.ID,
		Activity:     string(t.Kind),
		Direction:    string(t.Direction),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Reference:    t.Reference,
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
