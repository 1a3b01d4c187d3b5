package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/cron"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/metrics"
)

const (
	JobGoalReminders       = "goal-reminders"
	JobExpireSubscriptions = "expire-subscriptions"
	JobExpireSpotlights    = "expire-spotlights"
)

// CronService 批处理任务，HTTP 接口和 worker 调度共用
type CronService struct {
	groups *GroupService
	subs   *SubscriptionService
	apps   *ApplicationService
	log    *logrus.Entry
}

func NewCronService(groups *GroupService, subs *SubscriptionService, apps *ApplicationService) *CronService {
	return &CronService{
		groups: groups,
		subs:   subs,
		apps:   apps,
		log:    logger.Component("cron"),
	}
}

func (s *CronService) jobs() map[string]cron.JobFunc {
	return map[string]cron.JobFunc{
		JobGoalReminders:       s.groups.SendGoalReminders,
		JobExpireSubscriptions: s.subs.ExpireSubscriptions,
		JobExpireSpotlights:    s.apps.ExpireSpotlights,
	}
}

// Run 执行一次指定任务
func (s *CronService) Run(ctx context.Context, job string) (*dto.CronResult, error) {
	fn, ok := s.jobs()[job]
	if !ok {
		return nil, cron.ErrUnknownJob
	}

	start := time.Now()
	n, err := s.instrument(job, fn)(ctx)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"job": job, "processed": n}).Info("cron job triggered over http")
	return &dto.CronResult{Job: job, Processed: n, DurationMS: time.Since(start).Milliseconds()}, nil
}

// Register 把所有任务按配置的表达式注册到调度器
func (s *CronService) Register(sched *cron.Scheduler, cfg config.CronConfig) error {
	specs := map[string]string{
		JobGoalReminders:       cfg.GoalReminderSpec,
		JobExpireSubscriptions: cfg.ExpireSubscriptionsSpec,
		JobExpireSpotlights:    cfg.ExpireSpotlightsSpec,
	}
	for name, fn := range s.jobs() {
		if err := sched.Add(name, specs[name], s.instrument(name, fn)); err != nil {
			return err
		}
	}
	return nil
}

func (s *CronService) instrument(job string, fn cron.JobFunc) cron.JobFunc {
	return func(ctx context.Context) (int, error) {
		n, err := fn(ctx)
		metrics.RecordCronRun(job, err == nil)
		return n, err
	}
}
