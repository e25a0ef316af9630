package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/queue"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSink 发布到 RabbitMQ topic 交换机，路由键为 notification.<kind>
type AMQPSink struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPSink 连接 RabbitMQ 并声明交换机
func NewAMQPSink(cfg config.NotificationAMQPConfig) (*AMQPSink, error) {
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		exchange = "loadbid.notifications"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

// RoutingKey 通知的路由键
func RoutingKey(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "unknown"
	}
	return "notification." + kind
}

// Deliver 发布通知消息
func (s *AMQPSink) Deliver(ctx context.Context, payload queue.NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch.PublishWithContext(ctx, s.exchange, RoutingKey(payload.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    payload.JobID,
		Body:         body,
	})
}

// Close 关闭通道与连接
func (s *AMQPSink) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
