package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"job-dashboard/pkg/job"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

const (
	JobsExchange    = "jobs.exchange"
	DLXExchange     = "jobs.dlx"
	RunQueue        = "jobs.run.queue"
	RunRoutingKey   = "jobs.run"
	DeadLetterQueue = "jobs.dead_letter.queue"
)

func New(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return &Client{conn: conn, ch: ch}, nil
}

// SetupTopology declares the run-request exchange and queues. Idempotent.
func (c *Client) SetupTopology() error {
	if err := c.ch.ExchangeDeclare(JobsExchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(DLXExchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := c.ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(DeadLetterQueue, "", DLXExchange, false, nil); err != nil {
		return err
	}

	_, err := c.ch.QueueDeclare(RunQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": DLXExchange,
		"x-max-priority":         int32(10), // Enable priority levels (0-10)
	})
	if err != nil {
		return err
	}
	return c.ch.QueueBind(RunQueue, RunRoutingKey, JobsExchange, false, nil)
}

// mapPriority converts job priority to RabbitMQ uint8 priority levels.
func mapPriority(p job.Priority) uint8 {
	switch p {
	case job.PriorityHigh:
		return 9
	case job.PriorityMedium:
		return 5
	case job.PriorityLow:
		return 1
	default:
		return 5
	}
}

// PublishRun publishes a run request for j with the job's priority.
func (c *Client) PublishRun(ctx context.Context, exchange, routingKey string, j *job.Job) error {
	if exchange == "" {
		exchange = JobsExchange
	}
	if routingKey == "" {
		routingKey = RunRoutingKey
	}
	return c.ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			Body:         []byte(j.ID),
			Priority:     mapPriority(j.Priority),
			Type:         j.TaskName,
		})
}

func (c *Client) Close() {
	c.ch.Close()
	c.conn.Close()
}
