package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	OrderCreatedQueue  = "order.created"
	StockDepletedQueue = "stock.depleted"
)

type OrderCreated struct {
	EventType string             `json:"event_type"`
	OrderID   string             `json:"order_id"`
	Total     decimal.Decimal    `json:"total"`
	Lines     []OrderCreatedLine `json:"lines"`
	Timestamp time.Time          `json:"timestamp"`
}

type OrderCreatedLine struct {
	ItemID    string          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type StockDepleted struct {
	EventType string    `json:"event_type"`
	ItemID    string    `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher announces committed orders and drained items over RabbitMQ.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, queue := range []string{OrderCreatedQueue, StockDepletedQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", queue, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o domain.Order) error {
	ev := OrderCreated{
		EventType: "OrderCreated",
		OrderID:   o.ID,
		Total:     o.Total,
		Timestamp: time.Now().UTC(),
	}
	for _, line := range o.Lines {
		ev.Lines = append(ev.Lines, OrderCreatedLine{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderCreated: %w", err)
	}

	return p.publishJSON(ctx, OrderCreatedQueue, body)
}

func (p *Publisher) PublishStockDepleted(ctx context.Context, itemID string) error {
	ev := StockDepleted{
		EventType: "StockDepleted",
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal StockDepleted: %w", err)
	}

	return p.publishJSON(ctx, StockDepletedQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
