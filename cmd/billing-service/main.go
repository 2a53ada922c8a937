package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/app"
	"github.com/vladislavdragonenkov/perfumery/internal/version"
)

const (
	envConfigPath = "PERFUMERY_CONFIG"
	envLogLevel   = "PERFUMERY_LOG_LEVEL"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(parseLogLevel(level))
}

// parseLogLevel разбирает уровень логирования; неизвестное значение даёт info.
func parseLogLevel(raw string) log.Level {
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// firstNonEmpty возвращает значение флага, а если оно пустое, то переменной окружения.
func firstNonEmpty(flagValue string, lookup func(string) (string, bool), env string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v, ok := lookup(env); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func main() {
	var configPath, logLevel string
	flag.StringVar(&configPath, "config", "", "path to config file (fallback: "+envConfigPath+")")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (fallback: "+envLogLevel+")")
	flag.Parse()

	setupLogger(firstNonEmpty(logLevel, os.LookupEnv, envLogLevel))

	cfg, err := app.LoadConfig(firstNonEmpty(configPath, os.LookupEnv, envConfigPath))
	if err != nil {
		log.WithError(err).Fatal("не удалось загрузить конфигурацию")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.String(),
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"kafka":        len(cfg.KafkaBrokers) > 0,
	}).Info("запускаем BillingService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("BillingService остановлен")
}
