// Package messaging 将学习事件发布到 RabbitMQ，由下游（邮件、证书等）服务消费。
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnhub_backend/pkg/logger"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher 发布领域事件。实现须是 fire-and-forget 友好的：调用方只记录错误
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// ErrPublisherDown 连接断开且仍在重连退避期内
var ErrPublisherDown = errors.New("rabbitmq publisher is reconnecting")

// reconnectBackoff 重连失败后的最短等待，避免每个事件都去拨号
const reconnectBackoff = 5 * time.Second

// session 一条连接及其上的发布 channel
type session interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Closed() bool
	Close() error
}

type rabbitSession struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  chan *amqp.Error
}

func (s *rabbitSession) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return s.channel.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

// Closed channel 或连接关闭后 NotifyClose 会收到错误或被关闭
func (s *rabbitSession) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *rabbitSession) Close() error {
	if err := s.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		s.conn.Close()
		return err
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

func dialSession(url, exchange string) (session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &rabbitSession{conn: conn, channel: ch, closed: ch.NotifyClose(make(chan *amqp.Error, 1))}, nil
}

// RabbitPublisher 使用 topic exchange 发布 JSON 事件。
// channel 被 broker 关闭后，下一次 Publish 会重新拨号；断线期间只记录一次告警
type RabbitPublisher struct {
	exchange string
	dial     func() (session, error)
	now      func() time.Time

	mu         sync.Mutex
	sess       session
	down       bool
	retryAfter time.Time
	shutdown   bool
}

// NewRabbitPublisher 启动时必须连上，之后的断线由 Publish 自行恢复
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	return newPublisher(exchange, func() (session, error) { return dialSession(url, exchange) })
}

func newPublisher(exchange string, dial func() (session, error)) (*RabbitPublisher, error) {
	sess, err := dial()
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{exchange: exchange, dial: dial, now: time.Now, sess: sess}, nil
}

// ensureSession 调用方持有 mu
func (p *RabbitPublisher) ensureSession() (session, error) {
	if p.shutdown {
		return nil, amqp.ErrClosed
	}
	if p.sess != nil && !p.sess.Closed() {
		return p.sess, nil
	}
	if p.sess != nil {
		_ = p.sess.Close()
		p.sess = nil
		if !p.down {
			p.down = true
			logger.Log.Warn("RabbitMQ channel closed, reconnecting on next publish", zap.String("exchange", p.exchange))
		}
	}
	if p.now().Before(p.retryAfter) {
		return nil, ErrPublisherDown
	}

	sess, err := p.dial()
	if err != nil {
		p.retryAfter = p.now().Add(reconnectBackoff)
		if !p.down {
			p.down = true
			logger.Log.Warn("RabbitMQ reconnect failed, events dropped until it recovers", zap.Error(err))
		}
		return nil, err
	}
	if p.down {
		logger.Log.Info("RabbitMQ publisher reconnected", zap.String("exchange", p.exchange))
	}
	p.down = false
	p.retryAfter = time.Time{}
	p.sess = sess
	return sess, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// amqp.Channel 不是并发安全的
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, err := p.ensureSession()
	if err != nil {
		return err
	}

	return sess.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdown = true
	if p.sess == nil {
		return nil
	}
	err := p.sess.Close()
	p.sess = nil
	return err
}

// NopPublisher 消息功能关闭时使用
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
