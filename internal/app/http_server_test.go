package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

func TestOpsMux(t *testing.T) {
	up := healthcheck.NewHandler(version.GetVersion())
	up.Register("storage", healthcheck.CheckFunc(func(context.Context) error { return nil }))

	down := healthcheck.NewHandler(version.GetVersion())
	down.Register("storage", healthcheck.CheckFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))

	tests := []struct {
		name     string
		handler  *healthcheck.Handler
		path     string
		wantCode int
		wantBody string
	}{
		{name: "metrics", handler: up, path: "/metrics", wantCode: http.StatusOK, wantBody: "go_goroutines"},
		{name: "healthz up", handler: up, path: "/healthz", wantCode: http.StatusOK, wantBody: `"status":"healthy"`},
		{name: "readyz up", handler: up, path: "/readyz", wantCode: http.StatusOK, wantBody: "ready"},
		{name: "livez up", handler: up, path: "/livez", wantCode: http.StatusOK, wantBody: "ok"},
		{name: "healthz down", handler: down, path: "/healthz", wantCode: http.StatusServiceUnavailable, wantBody: "connection refused"},
		{name: "readyz down", handler: down, path: "/readyz", wantCode: http.StatusServiceUnavailable, wantBody: "not ready"},
		{name: "livez ignores storage", handler: down, path: "/livez", wantCode: http.StatusOK, wantBody: "ok"},
		{name: "unknown path", handler: up, path: "/debug", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newOpsMux(tt.handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStartMetricsServer_StopsOnShutdown(t *testing.T) {
	port := findFreePort(t)

	srv := startMetricsServer(fmt.Sprintf(":%d", port), log.WithField("test", "ops"), healthcheck.NewHandler("test"))
	require.NotNil(t, srv)

	url := fmt.Sprintf("http://localhost:%d/livez", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK && strings.TrimSpace(string(body)) == "ok"
	}, 2*time.Second, 20*time.Millisecond)

	shutdownHTTP(srv, log.WithField("test", "ops"))

	require.Eventually(t, func() bool {
		_, err := http.Get(url)
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "metrics server must stop after shutdown")

	// повторная остановка после выхода Run не должна ничего ломать
	shutdownHTTP(srv, log.WithField("test", "ops"))
}

func TestStartMetricsServer_BusyAddrDoesNotPanic(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	srv := startMetricsServer(busy.Addr().String(), log.WithField("test", "ops-busy"), healthcheck.NewHandler("test"))
	assert.NotNil(t, srv)
	shutdownHTTP(srv, log.WithField("test", "ops-busy"))
}

func TestShutdownHTTP(t *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "nil"))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	go func() { _ = srv.Serve(lis) }()

	url := "http://" + lis.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 20*time.Millisecond)

	shutdownHTTP(srv, log.WithField("test", "shutdown"))

	_, err = http.Get(url)
	assert.Error(t, err)
}

func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
