package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Publisher публикует интеграционные события доски в Kafka.
// Публикация — побочный канал: её ошибки логируются вызывающим, но не влияют
// ни на poll-цикл, ни на коммит перехода.
type Publisher struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewPublisher создаёт синхронный идемпотентный producer событий доски.
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	// Идемпотентность требует не больше одного запроса в полёте.
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Publisher{
		producer: producer,
		logger:   log.WithField("component", "kafka-publisher"),
	}, nil
}

// PublishOrdersArrived публикует событие о заказах, впервые появившихся
// в snapshot. Ключ фиксированный: события прибытия упорядочены между собой.
func (p *Publisher) PublishOrdersArrived(orderIDs []string) error {
	return p.publish(TopicBoardEvents, "arrivals", NewOrdersArrivedEvent(orderIDs))
}

// PublishStatusChanged публикует событие о подтверждённой directory смене
// статуса. Ключ — идентификатор заказа, чтобы события одного заказа
// попадали в одну партицию.
func (p *Publisher) PublishStatusChanged(orderID, from, to, role string) error {
	return p.publish(TopicBoardEvents, orderID, NewStatusChangedEvent(orderID, from, to, role))
}

func (p *Publisher) publish(topic, key string, event *BoardEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal board event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":      topic,
			"event_type": event.EventType,
			"key":        key,
		}).Error("failed to send board event to kafka")
		return fmt.Errorf("failed to send board event: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":      topic,
		"event_type": event.EventType,
		"key":        key,
		"partition":  partition,
		"offset":     offset,
	}).Debug("board event sent to kafka")

	return nil
}

// Close закрывает publisher.
func (p *Publisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
