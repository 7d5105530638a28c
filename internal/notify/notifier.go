package notify

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	"github.com/vladislavdragonenkov/orderboard/internal/reconcile"
)

const defaultPlayTimeout = 3 * time.Second

var (
	alertAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderboard_alert_attempts_total",
		Help: "Total number of novelty alert playback attempts grouped by result.",
	}, []string{"result"})
	alertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderboard_alerts_suppressed_total",
		Help: "Total number of alerts suppressed during the load phase.",
	})
)

// Options задаёт параметры notifier.
type Options struct {
	Logger      *log.Entry
	PlayTimeout time.Duration
}

// Option настраивает Notifier.
type Option func(*Options)

// WithLogger задаёт logger для notifier.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithPlayTimeout задаёт таймаут одной попытки воспроизведения.
func WithPlayTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.PlayTimeout = timeout
	}
}

// Notifier решает, озвучивать ли результат novelty-учёта одного poll-тика.
// Ошибка воспроизведения гасится и не отключает будущие попытки: следующий
// тик с новыми заказами пробует снова, независимо от предыдущего исхода.
type Notifier struct {
	player  domain.AlertPlayer
	logger  *log.Entry
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotifier создаёт notifier поверх плеера оповещений.
func NewNotifier(player domain.AlertPlayer, options ...Option) *Notifier {
	opts := Options{
		PlayTimeout: defaultPlayTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "novelty-notifier")
	}
	if opts.PlayTimeout <= 0 {
		opts.PlayTimeout = defaultPlayTimeout
	}

	return &Notifier{
		player:  player,
		logger:  logger,
		timeout: opts.PlayTimeout,
	}
}

// Notify запускает не более одной попытки воспроизведения за тик, независимо
// от количества новых заказов. Во время load phase оповещение подавляется.
func (n *Notifier) Notify(novel reconcile.IDSet, loadPhase bool) {
	if n.player == nil || len(novel) == 0 {
		return
	}
	if loadPhase {
		alertsSuppressed.Inc()
		n.logger.WithField("novel", len(novel)).Debug("load phase, alert suppressed")
		return
	}

	count := len(novel)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.player.Play(ctx); err != nil {
			// Ошибка воспроизведения не фатальна и не распространяется.
			alertAttempts.WithLabelValues("failed").Inc()
			n.logger.WithError(err).WithField("novel", count).Warn("alert playback failed")
			return
		}
		alertAttempts.WithLabelValues("played").Inc()
		n.logger.WithField("novel", count).Debug("novelty alert played")
	}()
}

// Wait дожидается завершения запущенных попыток воспроизведения.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
