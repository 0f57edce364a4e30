// Package notify publishes ledger events to RabbitMQ for downstream
// consumers (chat bots, reminder workers). The core never formats or
// delivers user-facing messages; it only emits events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/coconutsplit/coconutsplit/internal/models"
)

// SettlementMessage is the wire payload for a recorded settlement.
// Amounts are decimal strings; consumers never see raw cents.
type SettlementMessage struct {
	GroupID    string `json:"group_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	RecordedAt int64  `json:"recorded_at"`
}

// Publisher sends settlement events to a RabbitMQ exchange.
// A nil *Publisher is a no-op, so callers never branch on whether
// notifications are configured.
type Publisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

// NewPublisher dials RabbitMQ and declares the exchange and queue.
func NewPublisher(url, exchangeName, queueName string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := p.setup(); err != nil {
		p.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return p, nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.queueName,    // queue name
		p.queueName,    // routing key (same as queue name for direct exchange)
		p.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishSettlements emits one message per recorded settlement.
// Publish failures are logged but never fail the settlement itself: the
// ledger already committed.
func (p *Publisher) PublishSettlements(ctx context.Context, settlements []*models.Settlement) {
	if p == nil {
		return
	}

	for _, s := range settlements {
		msg := SettlementMessage{
			GroupID:    s.GroupID,
			FromUserID: s.FromUserID,
			ToUserID:   s.ToUserID,
			Amount:     s.Amount.String(),
			RecordedAt: s.CreatedAt,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to marshal settlement message", "error", err)
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.channel.PublishWithContext(
			pubCtx,
			p.exchangeName, // exchange
			p.queueName,    // routing key
			false,          // mandatory
			false,          // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		cancel()
		if err != nil {
			slog.ErrorContext(ctx, "Failed to publish settlement message",
				"error", err,
				"group_id", s.GroupID,
				"settlement_id", s.ID,
			)
			continue
		}

		slog.InfoContext(ctx, "Published settlement message",
			"group_id", s.GroupID,
			"settlement_id", s.ID,
			"exchange", p.exchangeName,
			"queue", p.queueName,
		)
	}
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
