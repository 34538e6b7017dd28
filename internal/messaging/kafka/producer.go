// Package kafka публикует события outbox в Kafka через синхронный sarama producer.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const defaultClientID = "storefront"

// Message сообщение для отправки в топик.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

type producerOptions struct {
	clientID   string
	maxRetries int
	logger     *log.Entry
}

// ProducerOption настраивает Producer.
type ProducerOption func(*producerOptions)

func WithClientID(id string) ProducerOption {
	return func(o *producerOptions) {
		if id != "" {
			o.clientID = id
		}
	}
}

// WithMaxRetries задаёт число повторов sarama внутри одного SendMessage.
func WithMaxRetries(n int) ProducerOption {
	return func(o *producerOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

func WithProducerLogger(logger *log.Entry) ProducerOption {
	return func(o *producerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Producer отправляет сообщения синхронно и дожидается подтверждения всех ISR.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
}

// NewProducer подключается к брокерам. Producer идемпотентный: повтор внутри sarama
// не создаёт дублей в партиции.
func NewProducer(brokers []string, opts ...ProducerOption) (*Producer, error) {
	o := producerOptions{
		clientID:   defaultClientID,
		maxRetries: 5,
		logger:     log.WithField("component", "kafka-producer"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	sp, err := sarama.NewSyncProducer(brokers, newSaramaConfig(o))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{sync: sp, logger: o.logger}, nil
}

// NewProducerFromSync оборачивает готовый sarama.SyncProducer, например mocks.SyncProducer.
func NewProducerFromSync(sp sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.WithField("component", "kafka-producer")
	}
	return &Producer{sync: sp, logger: logger}
}

func newSaramaConfig(o producerOptions) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = o.clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = o.maxRetries
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	// идемпотентный producer требует одного запроса в полёте на соединение
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// Send отправляет сообщение. Отмена ctx проверяется до отправки: SendMessage её не поддерживает.
func (p *Producer) Send(ctx context.Context, msg Message) error {
	if p == nil || p.sync == nil {
		return errors.New("kafka producer is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic:     msg.Topic,
		Key:       sarama.StringEncoder(msg.Key),
		Value:     sarama.ByteEncoder(msg.Value),
		Timestamp: time.Now(),
	}
	for name, value := range msg.Headers {
		pm.Headers = append(pm.Headers, sarama.RecordHeader{Key: []byte(name), Value: []byte(value)})
	}

	fields := log.Fields{"topic": msg.Topic, "key": msg.Key}
	partition, offset, err := p.sync.SendMessage(pm)
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Error("kafka send failed")
		return fmt.Errorf("send to %s: %w", msg.Topic, err)
	}

	fields["partition"], fields["offset"] = partition, offset
	p.logger.WithFields(fields).Debug("kafka message sent")
	return nil
}

// SendJSON сериализует v в JSON и отправляет через Send.
func (p *Producer) SendJSON(ctx context.Context, topic, key string, v any, headers map[string]string) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal kafka message: %w", err)
	}
	return p.Send(ctx, Message{Topic: topic, Key: key, Value: value, Headers: headers})
}

func (p *Producer) Close() error {
	if p == nil || p.sync == nil {
		return nil
	}
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
