package kafka

import (
	"context"
	"encoding/json"

	"checkout-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ProducerAPI is the surface the checkout service needs for publishing
// order events.
type ProducerAPI interface {
	SendCheckoutCompleted(ctx context.Context, event models.CheckoutCompletedEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &Producer{writer: w, topic: topic, logger: logger}
}

func (p *Producer) SendCheckoutCompleted(ctx context.Context, event models.CheckoutCompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish checkout.completed",
			zap.String("order_number", event.OrderNumber),
			zap.Error(err),
		)
		return err
	}
	p.logger.Info("Published checkout.completed",
		zap.String("order_number", event.OrderNumber),
		zap.String("topic", p.topic),
	)
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
