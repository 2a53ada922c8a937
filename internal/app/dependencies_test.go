package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/perfumery/internal/health"
	"github.com/vladislavdragonenkov/perfumery/internal/metrics"
	grpcsvc "github.com/vladislavdragonenkov/perfumery/internal/service/grpc"
)

func newMemoryServices(t *testing.T, cfg Config) (*runtimeDependencies, services) {
	t.Helper()

	logger := log.WithField("test", t.Name())
	deps, err := initRuntimeDependencies(context.Background(), cfg, logger)
	require.NoError(t, err)

	m := metrics.NewBillingMetricsWithRegisterer(prometheus.NewRegistry())
	return deps, buildServices(deps, m, logger)
}

func TestBuildServices_CheckoutFlow(t *testing.T) {
	deps, svcs := newMemoryServices(t, DefaultConfig())

	require.NotNil(t, svcs.grpc.Catalog)
	require.NotNil(t, svcs.grpc.Customers)
	require.NotNil(t, svcs.grpc.Ledger)
	require.NotNil(t, svcs.grpc.Dashboard)
	require.NotNil(t, svcs.grpc.Idempotency)
	require.Same(t, svcs.sales, svcs.grpc.Sales)

	cart, err := svcs.sales.OpenCart("")
	require.NoError(t, err)
	_, err = svcs.sales.AddItem(cart.ID, "1")
	require.NoError(t, err)
	_, err = svcs.sales.AddItem(cart.ID, "1")
	require.NoError(t, err)

	inv, err := svcs.sales.Checkout(context.Background(), cart.ID, "1")
	require.NoError(t, err)
	require.Equal(t, "FAC-000001", inv.Number)
	require.Equal(t, "276.00", inv.Total.StringFixed(2))

	product, err := svcs.grpc.Catalog.Get("1")
	require.NoError(t, err)
	require.Equal(t, 13, product.AvailableStock)

	stored, err := svcs.grpc.Ledger.Get(inv.Number)
	require.NoError(t, err)
	require.Equal(t, inv.Total.String(), stored.Total.String())

	stats, err := deps.outbox.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)

	events, err := svcs.grpc.Ledger.Timeline(inv.Number)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestNewHealthHandler_Checks(t *testing.T) {
	deps, svcs := newMemoryServices(t, DefaultConfig())

	resp := newHealthHandler(DefaultConfig(), deps, svcs, nil).Run(context.Background())
	require.Equal(t, healthcheck.StatusHealthy, resp.Status)
	require.Contains(t, resp.Checks, "storage")
	require.Contains(t, resp.Checks, "outbox")
	require.Contains(t, resp.Checks, "carts")
	require.NotContains(t, resp.Checks, "kafka")
}

func TestNewHealthHandler_KafkaConfiguredButUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"localhost:9092"}
	deps, svcs := newMemoryServices(t, cfg)

	resp := newHealthHandler(cfg, deps, svcs, nil).Run(context.Background())
	require.Equal(t, healthcheck.StatusUnhealthy, resp.Status)
	require.Equal(t, healthcheck.StatusUnhealthy, resp.Checks["kafka"].Status)
	require.Equal(t, errKafkaUnavailable.Error(), resp.Checks["kafka"].Message)
}

func TestNewHealthHandler_OutboxBacklogDegrades(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutboxMaxPending = 1
	deps, svcs := newMemoryServices(t, cfg)

	for range 2 {
		cart, err := svcs.sales.OpenCart("")
		require.NoError(t, err)
		_, err = svcs.sales.AddItem(cart.ID, "6")
		require.NoError(t, err)
		_, err = svcs.sales.Checkout(context.Background(), cart.ID, "2")
		require.NoError(t, err)
	}

	resp := newHealthHandler(cfg, deps, svcs, nil).Run(context.Background())
	require.Equal(t, healthcheck.StatusDegraded, resp.Checks["outbox"].Status)
	require.Equal(t, healthcheck.StatusDegraded, resp.Status)
}

func TestNewGRPCServer_RegisteredServices(t *testing.T) {
	_, svcs := newMemoryServices(t, DefaultConfig())
	logger := log.WithField("test", t.Name())

	server, healthServer := newGRPCServer(DefaultConfig(), grpcsvc.NewBillingService(svcs.grpc, logger), logger)
	t.Cleanup(server.Stop)

	info := server.GetServiceInfo()
	require.Len(t, info, 2)
	require.Contains(t, info, grpcsvc.ServiceName)
	require.Contains(t, info, healthpb.Health_ServiceDesc.ServiceName)
	require.NotContains(t, info, "grpc.reflection.v1.ServerReflection")
	require.NotContains(t, info, "grpc.reflection.v1alpha.ServerReflection")
	require.Len(t, info[grpcsvc.ServiceName].Methods, 18)

	resp, err := healthServer.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcsvc.ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
