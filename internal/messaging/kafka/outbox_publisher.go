package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var errPublisherNotReady = errors.New("kafka outbox publisher is not initialized")

// OutboxPublisher пишет outbox-сообщения в один topic в виде Envelope.
type OutboxPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт publisher; пустой topic заменяется на TopicStorefrontEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxPublisher {
	if topic == "" {
		topic = TopicStorefrontEvents
	}
	return &OutboxPublisher{producer: producer, topic: topic, now: time.Now}
}

// Topic возвращает topic назначения.
func (p *OutboxPublisher) Topic() string { return p.topic }

// Publish отправляет событие. Ключ партиционирования по агрегату сохраняет порядок
// событий одного товара или заказа.
func (p *OutboxPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotReady
	}

	envelope := NewEnvelope(event)
	envelope.PublishedAt = p.now().UTC()

	return p.producer.SendJSON(ctx, p.topic, partitionKey(event), envelope, eventHeaders(event))
}

func partitionKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

func eventHeaders(event domain.OutboxMessage) map[string]string {
	return map[string]string{
		HeaderEventType:     event.EventType,
		HeaderAggregateType: event.AggregateType,
		HeaderOutboxID:      event.ID,
	}
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
