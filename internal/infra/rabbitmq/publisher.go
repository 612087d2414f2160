package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	eventHeader   = "x-event"
	eventStatus   = "status"
	eventProgress = "progress"
)

// Publisher wraps one channel. amqp channels are not safe for concurrent
// publishing, and every worker shares this one.
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher, routingKey string) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: routingKey}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, jsonPublishing(msg, eventStatus, amqp.Persistent))
}

// PublishProgress sends transient progress updates; losing one on a broker
// restart is harmless.
func (sp *StatusPublisher) PublishProgress(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.pub.exchange, sp.routingKey, jsonPublishing(msg, eventProgress, amqp.Transient))
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	p := jsonPublishing(msg, "", amqp.Persistent)
	p.Headers = amqp.Table{"x-dlq-reason": reason}
	return dp.pub.publish(ctx, "", dp.queue, p)
}

func jsonPublishing(body []byte, event string, mode uint8) amqp.Publishing {
	p := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: mode,
		Timestamp:    time.Now().UTC(),
	}
	if event != "" {
		p.Headers = amqp.Table{eventHeader: event}
	}
	return p
}
