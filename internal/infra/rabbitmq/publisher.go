package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
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

func (p *Publisher) publish(ctx context.Context, routingKey string, msg []byte) error {
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: "quiz.status"}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.routingKey, msg)
}

type VerdictPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewVerdictPublisher(pub *Publisher) *VerdictPublisher {
	return &VerdictPublisher{pub: pub, routingKey: "quiz.verdicts"}
}

func (vp *VerdictPublisher) PublishVerdict(ctx context.Context, msg []byte) error {
	return vp.pub.publish(ctx, vp.routingKey, msg)
}

type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.pub.channel.PublishWithContext(ctx,
		"",
		dp.queue,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"x-dlq-reason": reason,
			},
		},
	)
}
