package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/fsm"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrOpenApplication     = errors.New("you already have an open spotlight application")
	ErrUnknownStatus       = errors.New("unknown status")
	ErrStatusConflict      = errors.New("status was changed by another request")
)

// SpotlightFlow Spotlight 申请的状态流转
var SpotlightFlow = fsm.New("spotlight", map[model.SpotlightStatus][]model.SpotlightStatus{
	model.SpotlightApplied:  {model.SpotlightInReview},
	model.SpotlightInReview: {model.SpotlightApproved, model.SpotlightDisapproved},
	model.SpotlightApproved: {model.SpotlightActive},
	model.SpotlightActive:   {model.SpotlightExpired},
})

// ProsperityFlow Prosperity Drop 申请的状态流转
var ProsperityFlow = fsm.New("prosperity_drop", map[model.ProsperityStatus][]model.ProsperityStatus{
	model.ProsperityApplied:  {model.ProsperityInReview},
	model.ProsperityInReview: {model.ProsperityApproved, model.ProsperityDisapproved},
})

type ApplicationService struct {
	db       *gorm.DB
	appRepo  *repository.ApplicationRepository
	ledger   *LedgerService
	notifier Notifier
	cfg      *config.Config
	now      func() time.Time
	log      *logrus.Entry
}

func NewApplicationService(
	db *gorm.DB,
	appRepo *repository.ApplicationRepository,
	ledger *LedgerService,
	notifier Notifier,
	cfg *config.Config,
) *ApplicationService {
	return &ApplicationService{
		db:       db,
		appRepo:  appRepo,
		ledger:   ledger,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Component("application"),
	}
}

func openSpotlightStatuses() []model.SpotlightStatus {
	var open []model.SpotlightStatus
	for _, s := range SpotlightFlow.States() {
		if !SpotlightFlow.IsTerminal(s) {
			open = append(open, s)
		}
	}
	return open
}

// ApplySpotlight 扣除申请费用并创建申请，二者在同一事务中
func (s *ApplicationService) ApplySpotlight(ctx context.Context, userID int64, req *dto.SpotlightApplyRequest) (*dto.ApplicationItem, error) {
	app := &model.SpotlightApplication{
		UserID:     userID,
		Status:     model.SpotlightApplied,
		Headline:   req.Headline,
		Pitch:      req.Pitch,
		WebsiteURL: req.WebsiteURL,
	}

	err := s.ledger.Atomic(ctx, func(ctx context.Context, tx *gorm.DB) error {
		// 行锁保证同一用户并发申请时只有一个能通过检查
		if err := s.ledger.LockAccount(tx, userID); err != nil {
			return err
		}
		apps := s.appRepo.WithTx(tx)
		open, err := apps.CountOpenSpotlights(userID, openSpotlightStatuses())
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenApplication
		}

		if _, err := s.ledger.DeductJP(ctx, tx, userID, model.ActivitySpotlightApplication, nil); err != nil {
			return err
		}
		return apps.CreateSpotlight(app)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "application_id": app.ID}).Info("spotlight application submitted")
	return spotlightItem(app), nil
}

// ChangeSpotlightStatus 管理员修改 Spotlight 状态
func (s *ApplicationService) ChangeSpotlightStatus(ctx context.Context, id int64, status, note string) (*dto.ApplicationItem, error) {
	to := model.SpotlightStatus(status)
	if !SpotlightFlow.Knows(to) {
		return nil, ErrUnknownStatus
	}

	app, err := s.appRepo.GetSpotlight(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	if err := SpotlightFlow.Validate(app.Status, to); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": to}
	if note != "" {
		fields["review_note"] = note
		app.ReviewNote = note
	}
	if to == model.SpotlightActive {
		from := s.now()
		until := from.AddDate(0, 0, s.spotlightDays())
		fields["active_from"] = from
		fields["active_until"] = until
		app.ActiveFrom = &from
		app.ActiveUntil = &until
	}

	ok, err := s.appRepo.UpdateSpotlightStatus(app.ID, app.Status, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStatusConflict
	}

	s.log.WithFields(logrus.Fields{"application_id": id, "from": app.Status, "to": to}).Info("spotlight status changed")
	app.Status = to

	NotifyQuietly(ctx, s.notifier, s.log, app.UserID, model.TemplateSpotlightStatus, map[string]string{
		"headline": app.Headline,
		"status":   string(to),
	})
	return spotlightItem(app), nil
}

// ExpireSpotlights 关闭展示期已过的 Spotlight
func (s *ApplicationService) ExpireSpotlights(ctx context.Context) (int, error) {
	apps, err := s.appRepo.ListSpotlightsToExpire(s.now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		if err := SpotlightFlow.Validate(app.Status, model.SpotlightExpired); err != nil {
			continue
		}
		ok, err := s.appRepo.UpdateSpotlightStatus(app.ID, app.Status, map[string]interface{}{"status": model.SpotlightExpired})
		if err != nil {
			return expired, fmt.Errorf("expire spotlight %d: %w", app.ID, err)
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *ApplicationService) ListMySpotlights(userID int64) ([]*dto.ApplicationItem, error) {
	apps, err := s.appRepo.ListSpotlightsByUser(userID)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.ApplicationItem, len(apps))
	for i, a := range apps {
		items[i] = spotlightItem(a)
	}
	return items, nil
}

// ListSpotlights 管理端列表
func (s *ApplicationService) ListSpotlights(status string, page, pageSize int) ([]*dto.ApplicationItem, int64, error) {
	apps, total, err := s.appRepo.ListSpotlights(model.SpotlightStatus(status), page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*dto.ApplicationItem, len(apps))
	for i, a := range apps {
		items[i] = spotlightItem(a)
	}
	return items, total, nil
}

// ListActiveSpotlights 当前公开展示的 Spotlight
func (s *ApplicationService) ListActiveSpotlights() ([]*dto.ApplicationItem, error) {
	apps, err := s.appRepo.ListActiveSpotlights(s.now())
	if err != nil {
		return nil, err
	}
	items := make([]*dto.ApplicationItem, len(apps))
	for i, a := range apps {
		item := spotlightItem(a)
		item.NextStatus = nil
		item.ReviewNote = ""
		items[i] = item
	}
	return items, nil
}

// ApplyProsperity 扣除申请费用并创建 Prosperity Drop 申请
func (s *ApplicationService) ApplyProsperity(ctx context.Context, userID int64, req *dto.ProsperityApplyRequest) (*dto.ApplicationItem, error) {
	app := &model.ProsperityDropApplication{
		UserID:      userID,
		Status:      model.ProsperityApplied,
		Title:       req.Title,
		Description: req.Description,
	}

	err := s.ledger.Atomic(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := s.ledger.DeductJP(ctx, tx, userID, model.ActivityProsperityApplication, nil); err != nil {
			return err
		}
		return s.appRepo.WithTx(tx).CreateProsperity(app)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "application_id": app.ID}).Info("prosperity application submitted")
	return prosperityItem(app), nil
}

// ChangeProsperityStatus 管理员修改 Prosperity Drop 状态
func (s *ApplicationService) ChangeProsperityStatus(ctx context.Context, id int64, status, note string) (*dto.ApplicationItem, error) {
	to := model.ProsperityStatus(status)
	if !ProsperityFlow.Knows(to) {
		return nil, ErrUnknownStatus
	}

	app, err := s.appRepo.GetProsperity(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	if err := ProsperityFlow.Validate(app.Status, to); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": to}
	if note != "" {
		fields["review_note"] = note
		app.ReviewNote = note
	}

	ok, err := s.appRepo.UpdateProsperityStatus(app.ID, app.Status, fields)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStatusConflict
	}

	s.log.WithFields(logrus.Fields{"application_id": id, "from": app.Status, "to": to}).Info("prosperity status changed")
	app.Status = to

	NotifyQuietly(ctx, s.notifier, s.log, app.UserID, model.TemplateProsperityStatus, map[string]string{
		"title":  app.Title,
		"status": string(to),
	})
	return prosperityItem(app), nil
}

func (s *ApplicationService) ListMyProsperity(userID int64) ([]*dto.ApplicationItem, error) {
	apps, err := s.appRepo.ListProsperityByUser(userID)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.ApplicationItem, len(apps))
	for i, a := range apps {
		items[i] = prosperityItem(a)
	}
	return items, nil
}

func (s *ApplicationService) ListProsperity(status string, page, pageSize int) ([]*dto.ApplicationItem, int64, error) {
	apps, total, err := s.appRepo.ListProsperity(model.ProsperityStatus(status), page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*dto.ApplicationItem, len(apps))
	for i, a := range apps {
		items[i] = prosperityItem(a)
	}
	return items, total, nil
}

func (s *ApplicationService) spotlightDays() int {
	if s.cfg == nil || s.cfg.JP.SpotlightDays <= 0 {
		return 1
	}
	return s.cfg.JP.SpotlightDays
}

func spotlightItem(a *model.SpotlightApplication) *dto.ApplicationItem {
	item := &dto.ApplicationItem{
		ID:         a.ID,
		Status:     string(a.Status),
		Title:      a.Headline,
		Body:       a.Pitch,
		WebsiteURL: a.WebsiteURL,
		ReviewNote: a.ReviewNote,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, next := range SpotlightFlow.Next(a.Status) {
		item.NextStatus = append(item.NextStatus, string(next))
	}
	if a.ActiveFrom != nil {
		item.ActiveFrom = a.ActiveFrom.UTC().Format(time.RFC3339)
	}
	if a.ActiveUntil != nil {
		item.ActiveUntil = a.ActiveUntil.UTC().Format(time.RFC3339)
	}
	if a.User != nil {
		item.Applicant = publicUser(a.User)
	}
	return item
}

func prosperityItem(a *model.ProsperityDropApplication) *dto.ApplicationItem {
	item := &dto.ApplicationItem{
		ID:         a.ID,
		Status:     string(a.Status),
		Title:      a.Title,
		Body:       a.Description,
		ReviewNote: a.ReviewNote,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, next := range ProsperityFlow.Next(a.Status) {
		item.NextStatus = append(item.NextStatus, string(next))
	}
	if a.User != nil {
		item.Applicant = publicUser(a.User)
	}
	return item
}

func publicUser(u *model.User) *dto.PublicUser {
	if u == nil {
		return nil
	}
	return &dto.PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}
