package transition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/board"
	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	"github.com/vladislavdragonenkov/orderboard/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderboard/internal/metrics"
)

// Options задаёт параметры контроллера переходов.
type Options struct {
	Logger  *log.Entry
	Metrics *metrics.BoardMetrics
	Events  *kafka.Publisher
}

// Option настраивает Controller.
type Option func(*Options)

// WithLogger задаёт logger для контроллера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики переходов.
func WithMetrics(m *metrics.BoardMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithEvents задаёт опциональный Kafka publisher интеграционных событий.
func WithEvents(events *kafka.Publisher) Option {
	return func(opts *Options) {
		opts.Events = events
	}
}

// Controller проверяет и коммитит смену статуса заказа.
// Дисциплина commit-after-confirm: опубликованный статус меняется только после
// успешного ответа directory; оптимистичных обновлений и автоповторов нет.
// In-flight guard сериализует переходы по одному заказу; переходы по разным
// заказам независимы.
type Controller struct {
	directory domain.OrderDirectory
	state     *board.State
	policy    Policy
	logger    *log.Entry
	metrics   *metrics.BoardMetrics
	events    *kafka.Publisher

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewController создаёт контроллер с политикой, выбранной при сборке представления.
func NewController(directory domain.OrderDirectory, state *board.State, policy Policy, options ...Option) *Controller {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "transition-controller")
	}
	if policy == nil {
		policy = Frontline()
	}

	return &Controller{
		directory: directory,
		state:     state,
		policy:    policy,
		logger:    logger,
		metrics:   opts.Metrics,
		events:    opts.Events,
		inFlight:  make(map[string]struct{}),
	}
}

// Policy возвращает активную политику переходов.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Advance продвигает заказ к следующему статусу (front-line сценарий).
// Для терминального статуса это no-op: запрос к directory не выдаётся.
func (c *Controller) Advance(ctx context.Context, orderID string) error {
	return c.Apply(ctx, orderID, "")
}

// Apply выполняет переход согласно активной политике.
// requested учитывается только privileged политикой.
func (c *Controller) Apply(ctx context.Context, orderID string, requested domain.OrderStatus) error {
	if !c.begin(orderID) {
		if c.metrics != nil {
			c.metrics.RecordTransition(metrics.TransitionInFlight)
		}
		return domain.ErrTransitionInFlight
	}
	defer c.end(orderID)

	order, ok := c.state.Get(orderID)
	if !ok {
		return domain.ErrOrderNotFound
	}

	next, err := c.policy.Plan(order.Status, requested)
	if err != nil {
		if errors.Is(err, domain.ErrStatusTerminal) {
			// Терминальный статус: сетевой вызов не выдаётся, статус не меняется.
			c.logger.WithField("order_id", orderID).Debug("order already completed, nothing to advance")
			return nil
		}
		return err
	}
	if next == order.Status {
		// Privileged выбрал текущий статус: коммитить нечего.
		return nil
	}

	start := time.Now()
	logger := c.logger.WithFields(log.Fields{
		"order_id":   orderID,
		"request_id": uuid.NewString(),
		"from":       order.Status,
		"to":         next,
	})

	if err := c.directory.UpdateStatus(ctx, orderID, next); err != nil {
		// Отказ directory: локальный статус остаётся прежним, без автоповтора.
		if c.metrics != nil {
			c.metrics.RecordTransition(metrics.TransitionRejected)
		}
		logger.WithError(err).Error("status update rejected by order directory")
		return fmt.Errorf("%w: %w", domain.ErrUpdateRejected, err)
	}

	// Commit-after-confirm: опубликованный список — единственный локальный
	// писатель статуса, открытый detail-просмотр видит коммит сразу.
	if !c.state.SetStatus(orderID, next) {
		logger.Debug("order rolled off the snapshot during commit")
	}

	if c.metrics != nil {
		c.metrics.RecordTransition(metrics.TransitionCommitted)
		c.metrics.RecordTransitionDuration(time.Since(start))
	}
	logger.Info("order status committed")
	c.publishStatusChanged(orderID, order.Status, next, logger)

	return nil
}

func (c *Controller) begin(orderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[orderID]; busy {
		return false
	}
	c.inFlight[orderID] = struct{}{}
	return true
}

func (c *Controller) end(orderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, orderID)
}

// publishStatusChanged публикует событие о смене статуса в Kafka (если publisher настроен)
func (c *Controller) publishStatusChanged(orderID string, from, to domain.OrderStatus, logger *log.Entry) {
	if c.events == nil {
		return
	}

	if err := c.events.PublishStatusChanged(orderID, string(from), string(to), string(c.policy.Role())); err != nil {
		// Kafka опциональна: ошибка публикации не откатывает коммит.
		logger.WithError(err).Warn("failed to publish status change event to kafka")
	}
}
