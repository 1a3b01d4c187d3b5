package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DeliveryJob 通知投递任务
type DeliveryJob struct {
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	Email          string `json:"email,omitempty"`
	Type           string `json:"type"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	Attempt        int    `json:"attempt"`
	EnqueuedAt     int64  `json:"enqueued_at"`
}

// Queue 基于 Redis list 的 FIFO 队列：LPUSH 入队，BRPOP 出队
type Queue struct {
	client    *redis.Client
	queueName string
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将任务加入队列
func (q *Queue) Push(ctx context.Context, job *DeliveryJob) error {
	if job.EnqueuedAt == 0 {
		job.EnqueuedAt = time.Now().UTC().Unix()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取任务（阻塞），超时返回 nil, nil
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*DeliveryJob, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var job DeliveryJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
