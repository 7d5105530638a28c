package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderboard/internal/app"
	"github.com/vladislavdragonenkov/orderboard/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if os.Getenv("ORDERBOARD_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
}

// readConfig загружает конфигурацию из файла, если он задан,
// иначе использует значения по умолчанию с наложением окружения.
func readConfig() (app.Config, error) {
	path := flag.String("config", os.Getenv("ORDERBOARD_CONFIG"), "путь к YAML-файлу конфигурации")
	flag.Parse()

	if *path != "" {
		return app.LoadConfig(*path)
	}

	cfg := app.DefaultConfig()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

func main() {
	setupLogger()

	cfg, err := readConfig()
	if err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":       version.String(),
		"role":          cfg.Role,
		"http_addr":     cfg.HTTPAddr,
		"directory":     cfg.Directory.Backend,
		"poll_interval": cfg.PollInterval.Std(),
	}).Info("запускаем операционную доску заказов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("доска остановлена")
}
