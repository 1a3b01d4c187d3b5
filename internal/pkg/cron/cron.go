package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var ErrUnknownJob = errors.New("unknown cron job")

// JobFunc 定时任务，返回处理条数
type JobFunc func(ctx context.Context) (int, error)

// Scheduler 基于 robfig/cron 的任务调度，所有时间按 UTC 计算
type Scheduler struct {
	cron    *robfig.Cron
	log     *logrus.Entry
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]JobFunc
}

func NewScheduler(log *logrus.Entry, timeout time.Duration) *Scheduler {
	adapter := logAdapter{log: log}
	return &Scheduler{
		cron: robfig.New(
			robfig.WithLocation(time.UTC),
			robfig.WithLogger(adapter),
			robfig.WithChain(robfig.Recover(adapter), robfig.SkipIfStillRunning(adapter)),
		),
		log:     log,
		timeout: timeout,
		jobs:    make(map[string]JobFunc),
	}
}

// Add 注册任务；spec 为空时只登记，可通过 RunNow 手动触发
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	s.jobs[name] = fn
	s.mu.Unlock()

	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { _, _ = s.RunNow(context.Background(), name) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// RunNow 立即执行一次任务
func (s *Scheduler) RunNow(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	fn, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return 0, ErrUnknownJob
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := fn(ctx)
	entry := s.log.WithFields(logrus.Fields{"job": name, "processed": n, "duration": time.Since(start)})
	if err != nil {
		entry.WithError(err).Error("cron job failed")
		return n, err
	}
	entry.Info("cron job finished")
	return n, nil
}

// Jobs 已注册的任务名
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scheduled 带调度表达式的任务数
func (s *Scheduler) Scheduled() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", s.Jobs()).Info("cron scheduler started")
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron scheduler stop timed out")
	}
	s.log.Info("cron scheduler stopped")
}

type logAdapter struct {
	log *logrus.Entry
}

func (a logAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.log.WithFields(pairs(keysAndValues)).Debug(msg)
}

func (a logAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.log.WithFields(pairs(keysAndValues)).WithError(err).Error(msg)
}

func pairs(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
