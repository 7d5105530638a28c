package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты poll-циклов и переходов для лейбла result.
const (
	PollResultOK        = "ok"
	PollResultFetchErr  = "fetch_error"
	PollResultSkipped   = "skipped"
	PollResultDiscarded = "discarded"

	TransitionCommitted = "committed"
	TransitionRejected  = "rejected"
	TransitionInFlight  = "in_flight"
)

// BoardMetrics содержит метрики poll-цикла и переходов статусов.
type BoardMetrics struct {
	// Счётчики poll-циклов по результату
	pollCycles *prometheus.CounterVec
	// Гистограмма длительности цикла fetch→reconcile→publish
	pollDuration prometheus.Histogram

	// Текущее количество заказов на доске
	ordersVisible prometheus.Gauge
	// Счётчик впервые увиденных заказов (novelty)
	novelOrders prometheus.Counter

	// Счётчики переходов статусов по результату
	transitions *prometheus.CounterVec
	// Гистограмма длительности commit пути
	transitionDuration prometheus.Histogram
}

// NewBoardMetrics создаёт метрики доски в default registry.
func NewBoardMetrics() *BoardMetrics {
	return newBoardMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newBoardMetricsWithRegisterer(registerer prometheus.Registerer) *BoardMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BoardMetrics{
		pollCycles: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderboard_poll_cycles_total",
			Help: "Total number of poll cycles grouped by result",
		}, []string{"result"}),
		pollDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderboard_poll_cycle_duration_seconds",
			Help:    "Duration of one fetch-reconcile-publish cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ordersVisible: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orderboard_orders_visible",
			Help: "Number of orders on the board after the latest snapshot",
		}),
		novelOrders: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderboard_novel_orders_total",
			Help: "Total number of newly arrived orders detected by reconciliation",
		}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderboard_status_transitions_total",
			Help: "Total number of status transition attempts grouped by result",
		}, []string{"result"}),
		transitionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderboard_status_transition_duration_seconds",
			Help:    "Duration of the status commit round trip in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPollCycle увеличивает счётчик циклов с данным результатом.
func (m *BoardMetrics) RecordPollCycle(result string) {
	m.pollCycles.WithLabelValues(result).Inc()
}

// RecordPollDuration записывает длительность успешного цикла.
func (m *BoardMetrics) RecordPollDuration(duration time.Duration) {
	m.pollDuration.Observe(duration.Seconds())
}

// SetOrdersVisible фиксирует размер последнего snapshot.
func (m *BoardMetrics) SetOrdersVisible(count int) {
	m.ordersVisible.Set(float64(count))
}

// RecordNovelOrders увеличивает счётчик впервые увиденных заказов.
func (m *BoardMetrics) RecordNovelOrders(count int) {
	if count <= 0 {
		return
	}
	m.novelOrders.Add(float64(count))
}

// RecordTransition увеличивает счётчик переходов с данным результатом.
func (m *BoardMetrics) RecordTransition(result string) {
	m.transitions.WithLabelValues(result).Inc()
}

// RecordTransitionDuration записывает длительность commit пути.
func (m *BoardMetrics) RecordTransitionDuration(duration time.Duration) {
	m.transitionDuration.Observe(duration.Seconds())
}
