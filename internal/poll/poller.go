package poll

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/board"
	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	"github.com/vladislavdragonenkov/orderboard/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderboard/internal/metrics"
	"github.com/vladislavdragonenkov/orderboard/internal/notify"
	"github.com/vladislavdragonenkov/orderboard/internal/reconcile"
)

// Интервал опроса оригинальной доски — 5 секунд.
const defaultInterval = 5 * time.Second

// Options задаёт параметры poller.
type Options struct {
	Logger   *log.Entry
	Interval time.Duration
	Metrics  *metrics.BoardMetrics
	Events   *kafka.Publisher
}

// Option настраивает Poller.
type Option func(*Options)

// WithLogger задаёт logger для poller.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithInterval задаёт период между poll-тиками.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithMetrics задаёт метрики циклов.
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

// Poller владеет повторяющимся циклом fetch → reconcile → notify → publish.
// Гарантия: в любой момент выполняется не больше одного fetch; тик, наступивший
// во время незавершённого fetch, пропускается, а не ставится в очередь.
type Poller struct {
	directory domain.OrderDirectory
	state     *board.State
	notifier  *notify.Notifier
	events    *kafka.Publisher
	logger    *log.Entry
	metrics   *metrics.BoardMetrics
	interval  time.Duration

	// busy — in-flight guard цикла; делит тикер и ручное обновление.
	busy atomic.Bool

	// mu защищает known/loaded/lastSuccess; KnownIDs мутируется только
	// в конце успешно завершённого цикла.
	mu          sync.Mutex
	known       reconcile.IDSet
	loaded      bool
	lastSuccess time.Time

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewPoller создаёт poller поверх Order Directory и состояния доски.
func NewPoller(directory domain.OrderDirectory, state *board.State, notifier *notify.Notifier, options ...Option) *Poller {
	opts := Options{
		Interval: defaultInterval,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "poller")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}

	return &Poller{
		directory: directory,
		state:     state,
		notifier:  notifier,
		events:    opts.Events,
		logger:    logger,
		metrics:   opts.Metrics,
		interval:  opts.Interval,
		known:     make(reconcile.IDSet),
	}
}

// Run выполняет немедленный первый цикл (load phase) и затем опрашивает
// directory с заданным интервалом до отмены ctx.
func (p *Poller) Run(ctx context.Context) {
	if p.directory == nil || p.state == nil {
		p.logger.Warn("poller is disabled: directory or state is nil")
		return
	}

	_ = p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.cycle(ctx)
			// Тик, накопившийся за время долгого fetch, отбрасывается.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

// Start запускает Run в отдельной горутине. Повторный Start — no-op.
func (p *Poller) Start() {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		p.Run(ctx)
	}()
}

// Stop отменяет расписание и дожидается завершения цикла. Уже выданный fetch
// может завершиться, но его результат будет отброшен, а не применён.
func (p *Poller) Stop() {
	p.lifecycleMu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh выполняет один внеплановый цикл (ручное обновление табличного вида).
// Возвращает domain.ErrFetchInFlight, если цикл уже выполняется.
func (p *Poller) Refresh(ctx context.Context) error {
	return p.cycle(ctx)
}

// LastSuccess возвращает время последнего успешно применённого snapshot.
func (p *Poller) LastSuccess() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSuccess
}

// KnownIDs возвращает копию рабочего множества идентификаторов.
func (p *Poller) KnownIDs() reconcile.IDSet {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make(reconcile.IDSet, len(p.known))
	for id := range p.known {
		snapshot[id] = struct{}{}
	}
	return snapshot
}

// cycle выполняет один цикл fetch → reconcile → notify → publish.
func (p *Poller) cycle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.busy.CompareAndSwap(false, true) {
		if p.metrics != nil {
			p.metrics.RecordPollCycle(metrics.PollResultSkipped)
		}
		return domain.ErrFetchInFlight
	}
	defer p.busy.Store(false)

	start := time.Now()
	logger := p.logger.WithField("cycle_id", uuid.NewString())

	orders, err := p.directory.List(ctx)
	if err != nil {
		// Предыдущие snapshot и KnownIDs остаются без изменений:
		// доска не пустеет из-за одного неудачного fetch.
		if p.metrics != nil {
			p.metrics.RecordPollCycle(metrics.PollResultFetchErr)
		}
		logger.WithError(err).Warn("order snapshot fetch failed, keeping last good snapshot")
		return fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	if err := ctx.Err(); err != nil {
		// Poller остановлен, пока fetch был в полёте: результат отбрасывается.
		if p.metrics != nil {
			p.metrics.RecordPollCycle(metrics.PollResultDiscarded)
		}
		logger.Debug("poller stopped mid-fetch, snapshot discarded")
		return err
	}

	p.mu.Lock()
	novel, next := reconcile.Reconcile(p.known, orders)
	loadPhase := !p.loaded
	p.state.ApplySnapshot(orders)
	p.known = next
	p.loaded = true
	p.lastSuccess = time.Now()
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.RecordPollCycle(metrics.PollResultOK)
		p.metrics.RecordPollDuration(time.Since(start))
		p.metrics.SetOrdersVisible(len(orders))
		if !loadPhase {
			p.metrics.RecordNovelOrders(len(novel))
		}
	}

	if p.notifier != nil {
		p.notifier.Notify(novel, loadPhase)
	}
	p.publishArrivals(novel, loadPhase, logger)

	logger.WithFields(log.Fields{
		"orders":     len(orders),
		"novel":      len(novel),
		"load_phase": loadPhase,
	}).Debug("poll cycle completed")

	return nil
}

// publishArrivals публикует событие о новых заказах в Kafka (если publisher настроен)
func (p *Poller) publishArrivals(novel reconcile.IDSet, loadPhase bool, logger *log.Entry) {
	if p.events == nil || loadPhase || len(novel) == 0 {
		return
	}

	if err := p.events.PublishOrdersArrived(novel.IDs()); err != nil {
		// Kafka опциональна: ошибка публикации не прерывает цикл.
		logger.WithError(err).Warn("failed to publish arrivals event to kafka")
	}
}
