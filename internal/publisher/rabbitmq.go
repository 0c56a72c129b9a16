package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"portal_syndicator/internal/domain"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// RunCompletedMessage announces a finished reconciler run. It carries no feed
// URL because that URL embeds the portal's delivery token.
type RunCompletedMessage struct {
	Event      string                `json:"event"`
	PortalID   string                `json:"portal_id"`
	RunLogID   string                `json:"run_log_id"`
	Status     domain.RunStatus      `json:"status"`
	Admitted   int                   `json:"admitted"`
	Published  int                   `json:"published"`
	Failed     int                   `json:"failed"`
	Rejected   map[domain.Reason]int `json:"rejected,omitempty"`
	DurationMS int64                 `json:"duration_ms"`
	Timestamp  time.Time             `json:"timestamp"`
}

const EventRunCompleted = "portal.sync.completed"

func NewRunCompletedMessage(result *domain.SyncResult, at time.Time) RunCompletedMessage {
	status := domain.RunSuccess
	if result.Failed > 0 {
		status = domain.RunPartial
	}
	return RunCompletedMessage{
		Event:      EventRunCompleted,
		PortalID:   result.PortalID,
		RunLogID:   result.RunLogID,
		Status:     status,
		Admitted:   result.Admitted,
		Published:  result.Published,
		Failed:     result.Failed,
		Rejected:   result.Rejected,
		DurationMS: result.Duration.Milliseconds(),
		Timestamp:  at.UTC(),
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, result *domain.SyncResult) error {
	msg := NewRunCompletedMessage(result, time.Now())

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         EventRunCompleted,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published run event",
		"portal_id", result.PortalID,
		"run_log_id", result.RunLogID,
		"status", msg.Status,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
