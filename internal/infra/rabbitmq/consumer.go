package rabbitmq

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type MessageHandler func(ctx context.Context, body []byte) error

// QueueBinding names a queue and the routing key that binds it to the
// exchange.
type QueueBinding struct {
	Queue      string
	RoutingKey string
}

type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	workerCount int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL      string
	Exchange string
	// Consume is the queue this consumer reads from.
	Consume QueueBinding
	// Declare lists additional queues this consumer is responsible for
	// declaring and binding (outbound queues its handler publishes to).
	Declare     []QueueBinding
	DLQ         string
	Prefetch    int
	WorkerCount int
	BaseDelayMs int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	bindings := append([]QueueBinding{cfg.Consume}, cfg.Declare...)
	for _, b := range bindings {
		if _, err = ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err = ch.QueueBind(b.Queue, b.RoutingKey, cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", b.Queue, err)
		}
	}

	if cfg.DLQ != "" {
		if _, err = ch.QueueDeclare(cfg.DLQ, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare dlq %s: %w", cfg.DLQ, err)
		}
	}

	if err = ch.Qos(cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.Consume.Queue,
		workerCount: cfg.WorkerCount,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",
		false, // autoAck=false
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish", zap.String("queue", c.queue))
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id), zap.String("queue", c.queue))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	err := c.handler(ctx, d.Body)
	if err != nil {
		log.Warn("message processing failed, nacking",
			zap.Error(err),
			zap.Uint64("delivery_tag", d.DeliveryTag),
		)

		attempt := c.getAttemptFromHeaders(d)
		delay := c.calculateBackoff(attempt)
		log.Info("backoff before requeue", zap.Duration("delay", delay), zap.Int("attempt", attempt))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = d.Nack(false, false)
			return
		}

		_ = d.Nack(false, true) // requeue=true
		return
	}

	_ = d.Ack(false)
}

func (c *Consumer) getAttemptFromHeaders(d amqp.Delivery) int {
	if d.Headers == nil {
		return 1
	}
	if xDeath, ok := d.Headers["x-death"]; ok {
		if deaths, ok := xDeath.([]interface{}); ok && len(deaths) > 0 {
			return len(deaths)
		}
	}
	return 1
}

func (c *Consumer) calculateBackoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > 60*time.Second {
		delay = 60 * time.Second
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
