// Package app 组装服务端与 worker 共用的基础设施和服务
package app

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/database"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/dedupe"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/email"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/oauth"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/oss"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/payment"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/queue"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
	"github.com/mythrivebuddy/thrive_server/internal/service"
)

var log = logger.Component("app")

// Repositories 全部仓储
type Repositories struct {
	Users         *repository.UserRepository
	Activities    *repository.ActivityRepository
	Transactions  *repository.TransactionRepository
	Applications  *repository.ApplicationRepository
	Subscriptions *repository.SubscriptionRepository
	Groups        *repository.GroupRepository
	Comments      *repository.CommentRepository
	Challenges    *repository.ChallengeRepository
	Notifications *repository.NotificationRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         repository.NewUserRepository(db),
		Activities:    repository.NewActivityRepository(db),
		Transactions:  repository.NewTransactionRepository(db),
		Applications:  repository.NewApplicationRepository(db),
		Subscriptions: repository.NewSubscriptionRepository(db),
		Groups:        repository.NewGroupRepository(db),
		Comments:      repository.NewCommentRepository(db),
		Challenges:    repository.NewChallengeRepository(db),
		Notifications: repository.NewNotificationRepository(db),
	}
}

// Services 全部业务服务
type Services struct {
	Repos         *Repositories
	Ledger        *service.LedgerService
	Auth          *service.AuthService
	User          *service.UserService
	Application   *service.ApplicationService
	Subscription  *service.SubscriptionService
	Group         *service.GroupService
	Comment       *service.CommentService
	Challenge     *service.ChallengeService
	Notification  *service.NotificationService
	Cron          *service.CronService
	Queue         *queue.Queue
	Mailer        *email.Service
	ObjectStorage oss.Storage
}

// Connect 建立 MySQL 与 Redis 连接
func Connect(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	log.Info("database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("redis connected")
	return db, rdb, nil
}

// NewStorage OSS 未配置时返回 nil，头像上传和证书生成随之关闭
func NewStorage(cfg *config.OSSConfig) (oss.Storage, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" {
		return nil, nil
	}
	client, err := oss.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("init oss: %w", err)
	}
	return client, nil
}

// NewServices 按依赖顺序构建服务
func NewServices(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*Services, error) {
	repos := NewRepositories(db)

	storage, err := NewStorage(&cfg.OSS)
	if err != nil {
		return nil, err
	}
	if storage == nil {
		log.Warn("object storage not configured, avatar upload and certificates disabled")
	}

	jobs := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	notifications := service.NewNotificationService(repos.Notifications, repos.Users, jobs)

	var mailer *email.Service
	var verifier service.VerificationMailer
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewService(&cfg.Email)
		verifier = mailer
	}

	ledger := service.NewLedgerService(db, repos.Users, repos.Activities, repos.Transactions)
	ttl := time.Duration(cfg.Payment.DedupeTTLHours) * time.Hour
	subs := service.NewSubscriptionService(db, repos.Subscriptions, repos.Users,
		payment.NewClient(&cfg.Payment), dedupe.NewStore(rdb, ttl), notifications, cfg)
	groups := service.NewGroupService(db, repos.Groups, repos.Comments, repos.Users, ledger, notifications, cfg)
	apps := service.NewApplicationService(db, repos.Applications, ledger, notifications, cfg)

	return &Services{
		Repos:  repos,
		Ledger: ledger,
		Auth: service.NewAuthService(repos.Users,
			oauth.NewGithubOAuth(&cfg.OAuth.Github), oauth.NewStateStore(rdb), verifier, notifications, cfg),
		User:          service.NewUserService(repos.Users, storage, cfg),
		Application:   apps,
		Subscription:  subs,
		Group:         groups,
		Comment:       service.NewCommentService(repos.Comments, repos.Groups, repos.Users),
		Challenge:     service.NewChallengeService(db, repos.Challenges, repos.Users, ledger, storage, notifications),
		Notification:  notifications,
		Cron:          service.NewCronService(groups, subs, apps),
		Queue:         jobs,
		Mailer:        mailer,
		ObjectStorage: storage,
	}, nil
}
