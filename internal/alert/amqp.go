package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
)

const (
	defaultExchange   = "orderboard_alerts"
	defaultRoutingKey = "board.alert"
)

// AMQPConfig задаёт подключение проигрывателя к RabbitMQ.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// AMQPPlayer публикует alert-сообщение в RabbitMQ: звук воспроизводят
// подписчики (станции операторов), а не сам сервис.
type AMQPPlayer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	acks       <-chan amqp.Confirmation
	exchange   string
	routingKey string

	// Publish с confirms не является concurrency-safe, сериализуем mutex-ом.
	mu sync.Mutex
}

type alertMessage struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// DialAMQP устанавливает соединение, включает publisher confirms и
// объявляет fanout exchange для alert-сообщений.
func DialAMQP(cfg AMQPConfig) (*AMQPPlayer, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = defaultExchange
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = defaultRoutingKey
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &AMQPPlayer{
		conn:       conn,
		ch:         ch,
		acks:       acks,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
	}, nil
}

// Play публикует одно alert-сообщение и ждёт ack брокера или отмены ctx.
func (p *AMQPPlayer) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, err := json.Marshal(alertMessage{
		Kind:      "orders_arrived",
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert message: %w", err)
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Transient,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	select {
	case conf := <-p.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("alert publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping проверяет живость соединения для health-check.
func (p *AMQPPlayer) Ping() error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPlayer) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

var _ domain.AlertPlayer = (*AMQPPlayer)(nil)
