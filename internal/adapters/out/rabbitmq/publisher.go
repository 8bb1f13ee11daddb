// Package rabbitmq publishes finalized kitchen tickets to the kitchen's
// message broker. A ticket goes out once per finalized order, after the
// finalizing turn committed.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"drivethru/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ticketExchange = "kitchen_topic"
	ticketQueue    = "kitchen_tickets.q"
)

// KitchenPublisher implements ports.KitchenNotifier over RabbitMQ. Tickets
// are published persistent to a topic exchange; the routing key carries the
// restaurant and lane so kitchens can bind per station.
type KitchenPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewKitchenPublisher connects to the broker and declares the ticket
// exchange and queue. The caller owns the returned publisher and must Close
// it on shutdown.
func NewKitchenPublisher(url string) (*KitchenPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := &KitchenPublisher{conn: conn, ch: ch}
	if err = p.declare(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// Close releases the channel and connection.
func (p *KitchenPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishTicket sends one finalized order to the kitchen.
func (p *KitchenPublisher) PublishTicket(ctx context.Context, ticket ports.KitchenTicket) error {
	body, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket: %w", err)
	}

	key := fmt.Sprintf("ticket.%s.%s", ticket.RestaurantID, ticket.LaneID)
	return p.ch.PublishWithContext(ctx, ticketExchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		MessageId:    ticket.OrderID,
		Body:         body,
	})
}

func (p *KitchenPublisher) declare() error {
	if err := p.ch.ExchangeDeclare(ticketExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := p.ch.QueueDeclare(ticketQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := p.ch.QueueBind(ticketQueue, "ticket.*.*", ticketExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}
