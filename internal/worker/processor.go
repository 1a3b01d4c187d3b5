package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mythrivebuddy/thrive_server/internal/pkg/email"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/metrics"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/pubsub"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/queue"
)

const (
	defaultMaxAttempts = 3
	popTimeout         = 5 * time.Second
)

// JobSource 通知投递队列
type JobSource interface {
	Push(ctx context.Context, job *queue.DeliveryJob) error
	Pop(ctx context.Context, timeout time.Duration) (*queue.DeliveryJob, error)
}

// Publisher 实时推送
type Publisher interface {
	Publish(ctx context.Context, msg *pubsub.RealtimeMessage) error
}

// Processor 消费投递任务：推送在线用户，并给有邮箱的用户发邮件
type Processor struct {
	source      JobSource
	sender      email.Sender
	publisher   Publisher
	maxAttempts int
	log         *logrus.Entry

	mu        sync.Mutex
	processed int
}

// NewProcessor sender 或 publisher 为 nil 时跳过对应渠道
func NewProcessor(source JobSource, sender email.Sender, publisher Publisher, maxAttempts int) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Processor{
		source:      source,
		sender:      sender,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		log:         logger.Component("worker"),
	}
}

// Process 投递单个任务。实时推送失败不重试；邮件失败时重新入队，超过次数后放弃
func (p *Processor) Process(ctx context.Context, job *queue.DeliveryJob) error {
	log := p.log.WithFields(logrus.Fields{
		"notification_id": job.NotificationID,
		"user_id":         job.UserID,
		"attempt":         job.Attempt,
	})

	if p.publisher != nil && job.Attempt == 0 {
		err := p.publisher.Publish(ctx, &pubsub.RealtimeMessage{
			Type:           pubsub.TypeNotification,
			UserID:         job.UserID,
			NotificationID: job.NotificationID,
			Title:          job.Subject,
			Body:           job.Body,
		})
		if err != nil {
			metrics.RecordDelivery("realtime", "error")
			log.WithError(err).Warn("failed to publish realtime notification")
		} else {
			metrics.RecordDelivery("realtime", "ok")
		}
	}

	if p.sender == nil || job.Email == "" {
		p.done()
		return nil
	}

	if err := p.sender.Send(job.Email, job.Subject, job.Body); err != nil {
		metrics.RecordDelivery("email", "error")
		job.Attempt++
		if job.Attempt >= p.maxAttempts {
			log.WithError(err).Error("email delivery failed, giving up")
			p.done()
			return fmt.Errorf("deliver notification %d: %w", job.NotificationID, err)
		}
		if qerr := p.source.Push(ctx, job); qerr != nil {
			return fmt.Errorf("requeue notification %d: %w", job.NotificationID, qerr)
		}
		log.WithError(err).Warn("email delivery failed, requeued")
		return err
	}

	metrics.RecordDelivery("email", "ok")
	log.Debug("notification delivered")
	p.done()
	return nil
}

func (p *Processor) done() {
	p.mu.Lock()
	p.processed++
	p.mu.Unlock()
}

// Processed 已完成（含放弃）的任务数
func (p *Processor) Processed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed
}

// Run 启动 workers 个消费者，阻塞到 ctx 结束
func (p *Processor) Run(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		workerID := i
		g.Go(func() error {
			p.loop(gctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (p *Processor) loop(ctx context.Context, workerID int) {
	log := p.log.WithField("worker_id", workerID)
	log.Info("worker started")

	for {
		if ctx.Err() != nil {
			log.Info("worker shutting down")
			return
		}

		job, err := p.source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				continue
			}
			log.WithError(err).Error("failed to pop job")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			log.WithError(err).WithField("notification_id", job.NotificationID).Warn("job failed")
		}
	}
}
