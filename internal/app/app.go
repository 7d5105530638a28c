// Package app собирает компоненты операционной доски в работающий сервис.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/alert"
	"github.com/vladislavdragonenkov/orderboard/internal/board"
	"github.com/vladislavdragonenkov/orderboard/internal/directory/httpapi"
	"github.com/vladislavdragonenkov/orderboard/internal/directory/memory"
	"github.com/vladislavdragonenkov/orderboard/internal/directory/postgres"
	"github.com/vladislavdragonenkov/orderboard/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orderboard/internal/health"
	"github.com/vladislavdragonenkov/orderboard/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderboard/internal/metrics"
	"github.com/vladislavdragonenkov/orderboard/internal/notify"
	"github.com/vladislavdragonenkov/orderboard/internal/poll"
	"github.com/vladislavdragonenkov/orderboard/internal/transition"
	"github.com/vladislavdragonenkov/orderboard/internal/version"
)

// Run собирает и запускает доску: directory, poller, контроллер переходов
// и HTTP-интерфейс. Блокируется до отмены ctx или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	directory, closeDirectory, checker, err := buildDirectory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDirectory()

	player, closePlayer, playerChecker := buildAlertPlayer(cfg, logger)
	defer closePlayer()

	// Kafka опциональна: без брокеров доска работает автономно.
	var events *kafka.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka publisher, continuing without kafka")
		} else {
			events = publisher
			logger.WithField("brokers", cfg.Kafka.Brokers).Info("kafka publisher initialized")
		}
	}
	defer func() {
		if events != nil {
			if err := events.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka publisher")
			}
		}
	}()

	boardMetrics := metrics.NewBoardMetrics()
	state := board.NewState()
	notifier := notify.NewNotifier(player,
		notify.WithLogger(logger.WithField("component", "notifier")),
	)
	defer notifier.Wait()

	poller := poll.NewPoller(directory, state, notifier,
		poll.WithLogger(logger.WithField("component", "poller")),
		poll.WithInterval(cfg.PollInterval.Std()),
		poll.WithMetrics(boardMetrics),
		poll.WithEvents(events),
	)

	role := domain.Role(cfg.Role)
	controller := transition.NewController(directory, state, transition.PolicyFor(role),
		transition.WithLogger(logger.WithField("component", "transition-controller")),
		transition.WithMetrics(boardMetrics),
		transition.WithEvents(events),
	)

	healthHandler := healthcheck.NewHandler(version.String())
	if checker != nil {
		healthHandler.RegisterChecker("directory", checker)
	}
	if playerChecker != nil {
		healthHandler.RegisterChecker("alert", playerChecker)
	}
	// Snapshot считается устаревшим после трёх пропущенных тиков.
	healthHandler.RegisterChecker("poll", healthcheck.NewFreshnessChecker(
		"poll", 3*cfg.PollInterval.Std(), poller.LastSuccess,
	))

	api := newBoardAPI(state, controller, poller, role, logger.WithField("component", "http"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	api.register(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	poller.Start()
	defer poller.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("board HTTP interface listening on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		shutdownHTTP(srv, logger)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildDirectory создаёт Order Directory согласно конфигурации и возвращает
// также функцию закрытия и health-проверку источника.
func buildDirectory(ctx context.Context, cfg Config, logger *log.Entry) (domain.OrderDirectory, func(), healthcheck.Checker, error) {
	noop := func() {}

	switch cfg.Directory.Backend {
	case "memory":
		logger.Info("using in-memory order directory")
		return memory.NewDirectory(), noop, nil, nil

	case "postgres":
		store, err := postgres.Open(ctx, cfg.Directory.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres directory: %w", err)
		}

		var options []postgres.DirectoryOption
		if domain.Role(cfg.Role) == domain.RoleAgent {
			// Front-line смена видит только сегодняшние заказы.
			options = append(options, postgres.WithTodayScope())
		}
		directory := postgres.NewDirectory(store, options...)

		checker := healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		})
		closeFn := func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		}
		logger.Info("using postgres order directory")
		return directory, closeFn, checker, nil

	case "http":
		client := httpapi.NewClient(cfg.Directory.BaseURL,
			httpapi.WithLogger(logger.WithField("component", "directory-client")),
			httpapi.WithToken(cfg.Directory.Token),
			httpapi.WithPageLimit(cfg.Directory.PageLimit),
		)
		logger.WithField("base_url", cfg.Directory.BaseURL).Info("using http order directory")
		return client, noop, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown directory backend %q", cfg.Directory.Backend)
	}
}

// buildAlertPlayer создаёт проигрыватель сигнала. Отказ AMQP не фатален:
// доска продолжает работу без звука.
func buildAlertPlayer(cfg Config, logger *log.Entry) (domain.AlertPlayer, func(), healthcheck.Checker) {
	noop := func() {}

	switch cfg.Alert.Backend {
	case "none":
		return nil, noop, nil

	case "amqp":
		player, err := alert.DialAMQP(alert.AMQPConfig{
			URL:        cfg.Alert.URL,
			Exchange:   cfg.Alert.Exchange,
			RoutingKey: cfg.Alert.RoutingKey,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to connect amqp alert player, continuing without alerts")
			return nil, noop, nil
		}
		checker := healthcheck.NewSimpleChecker("amqp", player.Ping)
		return player, player.Close, checker

	default:
		return alert.NewBellPlayer(nil), noop, nil
	}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
