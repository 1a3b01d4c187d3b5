package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/queue"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrTemplateNotFound     = errors.New("notification template not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Notifier 业务服务只依赖这个接口发送通知
type Notifier interface {
	Notify(ctx context.Context, userID int64, key string, vars map[string]string) error
}

// JobQueue 投递队列
type JobQueue interface {
	Push(ctx context.Context, job *queue.DeliveryJob) error
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	queue            JobQueue
	log              *logrus.Entry
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	q JobQueue,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		queue:            q,
		log:              logger.Component("notification"),
	}
}

// Render 替换 {{var}} 占位符，未提供的变量替换为空串
func Render(text string, vars map[string]string, escape bool) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v := vars[name]
		if escape {
			return html.EscapeString(v)
		}
		return v
	})
}

// Notify 渲染模板、写入站内通知并投递邮件/实时推送任务
func (s *NotificationService) Notify(ctx context.Context, userID int64, key string, vars map[string]string) error {
	tpl, err := s.notificationRepo.GetTemplate(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("load template %s: %w", key, err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	merged := make(map[string]string, len(vars)+1)
	merged["username"] = user.Username
	for k, v := range vars {
		merged[k] = v
	}
	vars = merged

	n := &model.Notification{
		UserID:    userID,
		Type:      key,
		Title:     Render(tpl.Subject, vars, false),
		Body:      Render(tpl.Body, vars, true),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notificationRepo.Create(n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if s.queue == nil {
		return nil
	}

	job := &queue.DeliveryJob{
		NotificationID: n.ID,
		UserID:         userID,
		Type:           key,
		Subject:        n.Title,
		Body:           n.Body,
	}
	if user.Email != nil {
		job.Email = *user.Email
	}
	if err := s.queue.Push(ctx, job); err != nil {
		// 站内通知已写入，投递失败只记录日志
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":         userID,
			"notification_id": n.ID,
		}).Warn("failed to enqueue notification delivery")
	}
	return nil
}

// NotifyQuietly 通知失败不影响主流程
func NotifyQuietly(ctx context.Context, n Notifier, log *logrus.Entry, userID int64, key string, vars map[string]string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, key, vars); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "template": key}).Warn("notify failed")
	}
}

// List 分页获取通知
func (s *NotificationService) List(userID int64, unreadOnly bool, page, pageSize int) (*dto.NotificationList, error) {
	list, total, err := s.notificationRepo.ListByUser(userID, unreadOnly, page, pageSize)
	if err != nil {
		return nil, err
	}
	unread, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.NotificationItem, len(list))
	for i, n := range list {
		items[i] = &dto.NotificationItem{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	return &dto.NotificationList{
		List:     items,
		Total:    total,
		Unread:   unread,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *NotificationService) MarkRead(userID, id int64) error {
	found, err := s.notificationRepo.MarkRead(userID, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID int64) (int64, error) {
	return s.notificationRepo.MarkAllRead(userID)
}
