package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic          = "receipt-issued"
	EventTypeReceiptIssue = "ReceiptIssued"

	// kafka-go waits up to a second to fill a batch by default, and checkout
	// writes one message at a time.
	batchTimeout = 10 * time.Millisecond
)

type ReceiptPublisher interface {
	PublishReceipt(ctx context.Context, r *domain.Receipt) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ReceiptIssued struct {
	ReceiptID    string       `json:"receipt_id"`
	TerminalID   string       `json:"terminal_id"`
	CustomerName string       `json:"customer_name,omitempty"`
	Items        []IssuedItem `json:"items"`
	Total        string       `json:"total"`
	CreatedAt    time.Time    `json:"created_at"`
}

type IssuedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ScanCode  string `json:"scan_code"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Amount    string `json:"amount"`
}

type KafkaPublisher struct {
	terminalID string
	writer     messageWriter
}

func NewKafkaPublisher(topic, terminalID string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{terminalID: terminalID, writer: w}
}

func (p *KafkaPublisher) PublishReceipt(ctx context.Context, r *domain.Receipt) error {
	payload, err := json.Marshal(NewReceiptIssued(p.terminalID, r))
	if err != nil {
		return fmt.Errorf("marshal receipt event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeReceiptIssue)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish receipt %s: %w", r.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func NewReceiptIssued(terminalID string, r *domain.Receipt) ReceiptIssued {
	ev := ReceiptIssued{
		ReceiptID:    r.ID,
		TerminalID:   terminalID,
		CustomerName: r.CustomerName,
		Items:        make([]IssuedItem, 0, len(r.Items)),
		Total:        domain.FormatMoney(r.Total),
		CreatedAt:    r.CreatedAt,
	}
	for _, l := range r.Items {
		ev.Items = append(ev.Items, IssuedItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			ScanCode:  l.Product.ScanCode,
			Quantity:  l.Quantity,
			UnitPrice: domain.FormatMoney(l.Product.ActivePrice),
			Amount:    domain.FormatMoney(l.Subtotal()),
		})
	}
	return ev
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishReceipt(context.Context, *domain.Receipt) error { return nil }

func (Noop) Close() error { return nil }
