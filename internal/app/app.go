package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/perfumery/internal/health"
	"github.com/vladislavdragonenkov/perfumery/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/perfumery/internal/metrics"
	"github.com/vladislavdragonenkov/perfumery/internal/service/cleanup"
	grpcsvc "github.com/vladislavdragonenkov/perfumery/internal/service/grpc"
	"github.com/vladislavdragonenkov/perfumery/internal/service/outbox"
	"github.com/vladislavdragonenkov/perfumery/internal/version"
)

var errKafkaUnavailable = errors.New("kafka producer is not available")

// Run поднимает gRPC-сервер, HTTP-метрики и фоновые воркеры и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	svcs := buildServices(deps, metrics.NewBillingMetrics(), logger)
	billingService := grpcsvc.NewBillingService(svcs.grpc, logger.WithField("layer", "grpc"))
	billingService.SetIdempotencyTTL(cfg.IdempotencyTTL)

	// ошибка уже залогирована: сервис продолжает работу без Kafka
	kafkaProducer, _ := initKafkaProducer(cfg, logger)
	defer closeKafka(kafkaProducer, logger)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		stopWorkers()
		workers.Wait()
	}()
	startWorkers(workersCtx, &workers, cfg, deps, svcs, kafkaProducer, logger)

	grpcServer, healthServer := newGRPCServer(cfg, billingService, logger)

	healthHandler := newHealthHandler(cfg, deps, svcs, kafkaProducer)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("version", version.GetVersion()).Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.Shutdown()
		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(shutdownTimeout(cfg)):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// newGRPCServer собирает gRPC-сервер с метриками, rate limit и health-сервисом.
// ServiceDesc написан вручную и не несёт файлового дескриптора, поэтому
// server reflection не регистрируется.
func newGRPCServer(cfg Config, billingService *grpcsvc.BillingService, logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := registerGRPCMetrics(logger)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcMetrics.UnaryServerInterceptor(),
		grpcsvc.RateLimitUnaryInterceptor(grpcsvc.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
	))
	grpcsvc.RegisterBillingServiceServer(grpcServer, billingService)
	grpcMetrics.InitializeMetrics(grpcServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcsvc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return grpcServer, healthServer
}

// startWorkers запускает outbox (только с Kafka) и очистку корзин и ключей идемпотентности.
func startWorkers(ctx context.Context, wg *sync.WaitGroup, cfg Config, deps *runtimeDependencies, svcs services, producer *kafka.Producer, logger *log.Entry) {
	if producer != nil {
		worker := outbox.NewWorker(deps.outbox, kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			outbox.WithLogger(logger.WithField("worker", "outbox")),
			outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
			outbox.WithMaxRetryDelay(cfg.OutboxMaxRetryDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		logger.Info("kafka is not configured, outbox messages stay pending")
	}

	cleaner := cleanup.NewWorker(deps.idempotency, svcs.sales,
		cleanup.WithLogger(logger.WithField("worker", "cleanup")),
		cleanup.WithInterval(cfg.CleanupInterval),
		cleanup.WithBatchSize(cfg.CleanupBatchSize),
		cleanup.WithCartTTL(cfg.CartTTL),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleaner.Run(ctx)
	}()
}

func newHealthHandler(cfg Config, deps *runtimeDependencies, svcs services, producer *kafka.Producer) *healthcheck.Handler {
	h := healthcheck.NewHandler(version.GetVersion())
	h.SetTimeout(cfg.HealthTimeout)
	h.RegisterChecker("storage", healthcheck.NewFuncChecker("storage", deps.ping))
	h.RegisterChecker("outbox", healthcheck.NewBacklogChecker("outbox", cfg.OutboxMaxPending, func() (int, error) {
		stats, err := deps.outbox.Stats()
		return stats.PendingCount, err
	}))
	h.RegisterChecker("carts", healthcheck.NewBacklogChecker("carts", 0, svcs.sales.ActiveCarts))
	if len(cfg.KafkaBrokers) > 0 {
		h.RegisterChecker("kafka", healthcheck.NewFuncChecker("kafka", func(context.Context) error {
			if producer == nil {
				return errKafkaUnavailable
			}
			return nil
		}))
	}
	return h
}

// registerGRPCMetrics регистрирует метрики сервера; при повторном запуске берёт уже зарегистрированные.
func registerGRPCMetrics(logger *log.Entry) *promgrpc.ServerMetrics {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("failed to register grpc metrics")
	}
	return grpcMetrics
}

// startMetricsServer запускает HTTP-обработчики /metrics, /healthz, /livez и /readyz.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}

func shutdownTimeout(cfg Config) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return 5 * time.Second
}
