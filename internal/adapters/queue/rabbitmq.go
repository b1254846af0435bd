package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"corporateevents/internal/domain"
)

// amqpChannel is the subset of *amqp.Channel used by RabbitMQQueue.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
}

// RabbitMQQueue publishes tasks to a durable queue and consumes them with retries.
// The attempt count travels in the task body and in the x-attempt header.
// A failed task is republished with its attempt counter raised; once MaxAttempts
// is reached it is rejected without requeue so a dead-letter policy can pick it up.
type RabbitMQQueue struct {
	conn    *amqp.Connection
	ch      amqpChannel
	queue   string
	handler domain.TaskHandler
	opts    Options
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRabbitMQQueue dials url and declares the durable task queue.
func NewRabbitMQQueue(url, queueName string, handler domain.TaskHandler, opts Options, logger *slog.Logger) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	q := newRabbitMQQueue(ch, queueName, handler, opts, logger)
	q.conn = conn
	logger.Info("rabbitmq task queue initialized", "queue", queueName)
	return q, nil
}

func newRabbitMQQueue(ch amqpChannel, queueName string, handler domain.TaskHandler, opts Options, logger *slog.Logger) *RabbitMQQueue {
	return &RabbitMQQueue{
		ch:      ch,
		queue:   queueName,
		handler: handler,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

func (q *RabbitMQQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    task.ID,
		Type:         string(task.Kind),
		Timestamp:    time.Now(),
		Headers:      amqp.Table{"x-attempt": int32(task.Attempt)},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish task: %w", err)
	}
	return nil
}

// Start begins consuming with one delivery in flight per worker.
func (q *RabbitMQQueue) Start(ctx context.Context) error {
	if err := q.ch.Qos(q.opts.Workers, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.queue, err)
	}
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					q.process(ctx, d)
				}
			}
		}()
	}
	q.logger.Info("started consuming tasks", "queue", q.queue, "workers", q.opts.Workers)
	return nil
}

// Stop stops the consumers and closes the channel and connection.
func (q *RabbitMQQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	if err := q.ch.Close(); err != nil {
		q.logger.Warn("close rabbitmq channel", "error", err)
	}
	if q.conn != nil {
		if err := q.conn.Close(); err != nil {
			q.logger.Warn("close rabbitmq connection", "error", err)
		}
	}
}

func (q *RabbitMQQueue) process(ctx context.Context, d amqp.Delivery) {
	var task domain.Task
	if err := json.Unmarshal(d.Body, &task); err != nil {
		q.logger.Error("dropping malformed task message", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}

	task.Attempt++
	err := q.handler.Handle(context.WithoutCancel(ctx), &task)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	if task.Attempt >= q.opts.MaxAttempts {
		q.logger.Error("task failed permanently",
			"task_id", task.ID, "kind", task.Kind, "attempts", task.Attempt, "error", err)
		_ = d.Nack(false, false)
		return
	}

	delay := q.opts.backoff(task.Attempt)
	q.logger.Warn("task failed, retrying",
		"task_id", task.ID, "kind", task.Kind, "attempt", task.Attempt, "retry_in", delay, "error", err)
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		// Unacked; the broker redelivers it with the previous attempt count.
		_ = d.Nack(false, true)
		return
	case <-timer.C:
	}
	if err := q.Enqueue(ctx, &task); err != nil {
		q.logger.Error("republish failed task", "task_id", task.ID, "error", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
