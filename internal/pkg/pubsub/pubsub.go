package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// 实时消息类型
const (
	TypeNotification = "notification"
	TypeJPUpdate     = "jp_update"
)

// RealtimeMessage 推送给在线用户的消息
type RealtimeMessage struct {
	Type           string `json:"type"`
	UserID         int64  `json:"user_id"`
	NotificationID int64  `json:"notification_id,omitempty"`
	Title          string `json:"title,omitempty"`
	Body           string `json:"body,omitempty"`
	Balance        *int64 `json:"balance,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Publish 发布实时消息
func (p *Publisher) Publish(ctx context.Context, msg *RealtimeMessage) error {
	if msg.Type == "" {
		msg.Type = TypeNotification
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime message: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	return &Subscriber{client: client, channel: channel}
}

// Subscribe 阻塞消费消息直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*RealtimeMessage)) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	// 等待订阅确认，避免在订阅生效前丢消息
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var rm RealtimeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				continue // 忽略解析错误
			}

			handler(&rm)
		}
	}
}
