package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/perfumery/internal/health"
)

// startHealthServer поднимает HTTP-сервер метрик с health-проверками memory-зависимостей.
func startHealthServer(t *testing.T, cfg Config, tune func(*healthcheck.Handler)) (string, context.CancelFunc) {
	t.Helper()

	deps, svcs := newMemoryServices(t, cfg)
	handler := newHealthHandler(cfg, deps, svcs, nil)
	if tune != nil {
		tune(handler)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := startMetricsServer(ctx, addr, log.WithField("test", t.Name()), handler)
	require.NotNil(t, srv)

	base := "http://" + addr
	waitForHTTP(t, base+"/livez")
	return base, cancel
}

func TestMetricsServer_HealthEndpointsWithMemoryStorage(t *testing.T) {
	base, _ := startHealthServer(t, DefaultConfig(), nil)

	status, body := get(t, base+"/livez")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body)

	status, body = get(t, base+"/readyz")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ready", body)

	status, body = get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, status)

	var report healthcheck.Response
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	require.Equal(t, healthcheck.StatusHealthy, report.Status)
	require.Equal(t, healthcheck.StatusHealthy, report.Checks["storage"].Status)
	require.Contains(t, report.Checks, "outbox")
	require.Contains(t, report.Checks, "carts")

	status, body = get(t, base+"/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "go_goroutines")
}

func TestMetricsServer_ReadinessFailsWhenStorageDown(t *testing.T) {
	base, _ := startHealthServer(t, DefaultConfig(), func(h *healthcheck.Handler) {
		h.RegisterChecker("storage", healthcheck.NewFuncChecker("storage", func(context.Context) error {
			return errors.New("connection refused")
		}))
	})

	status, body := get(t, base+"/readyz")
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "not ready", body)

	status, body = get(t, base+"/healthz")
	require.Equal(t, http.StatusServiceUnavailable, status)

	var report healthcheck.Response
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	require.Equal(t, healthcheck.StatusUnhealthy, report.Checks["storage"].Status)
	require.Equal(t, "connection refused", report.Checks["storage"].Message)

	// liveness не зависит от хранилища
	status, _ = get(t, base+"/livez")
	require.Equal(t, http.StatusOK, status)
}

func TestMetricsServer_ReadinessFailsWithoutKafkaProducer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"127.0.0.1:1"}
	base, _ := startHealthServer(t, cfg, nil)

	status, _ := get(t, base+"/readyz")
	require.Equal(t, http.StatusServiceUnavailable, status)
}

func TestMetricsServer_DegradedBacklogIsStillReady(t *testing.T) {
	base, _ := startHealthServer(t, DefaultConfig(), func(h *healthcheck.Handler) {
		h.RegisterChecker("outbox", healthcheck.NewBacklogChecker("outbox", 1, func() (int, error) {
			return 5, nil
		}))
	})

	status, body := get(t, base+"/healthz")
	require.Equal(t, http.StatusOK, status)
	require.True(t, strings.Contains(body, string(healthcheck.StatusDegraded)), body)

	status, _ = get(t, base+"/readyz")
	require.Equal(t, http.StatusOK, status)
}

func TestMetricsServer_StopsOnContextCancel(t *testing.T) {
	base, cancel := startHealthServer(t, DefaultConfig(), nil)

	cancel()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/livez")
		if err != nil {
			return true
		}
		_ = resp.Body.Close()
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func waitForHTTP(t *testing.T, url string) {
	t.Helper()

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond, "server at %s did not start", url)
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
