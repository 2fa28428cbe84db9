package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gotransfer/internal/infrastructure/config"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTPReadTimeout:     time.Second,
		HTTPWriteTimeout:    time.Second,
		HTTPIdleTimeout:     time.Second,
		HTTPShutdownTimeout: time.Second,
		TransferLockTimeout: time.Second,
		IdempotencyTTL:      time.Minute,
		NotifyWorkers:       1,
		NotifyQueueSize:     16,
		NotifyRedisChannel:  "gotransfer:notifications",
	}
}

func startApp(t *testing.T, cfg *config.Config) string {
	t.Helper()

	a, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, listener) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("app did not stop")
		}
	})

	return "http://" + listener.Addr().String()
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestAppServesTransfers(t *testing.T) {
	base := startApp(t, testConfig())

	status, body := post(t, base+"/api/v1/accounts", `{"accountId":"A","balance":100}`)
	require.Equal(t, http.StatusCreated, status, body)
	status, body = post(t, base+"/api/v1/accounts", `{"accountId":"B","balance":0}`)
	require.Equal(t, http.StatusCreated, status, body)

	status, body = post(t, base+"/api/v1/accounts/transfer", `{"accountFromId":"A","accountToId":"B","amount":10}`)
	require.Equal(t, http.StatusOK, status, body)

	var receipt struct {
		TransactionID string `json:"transactionId"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &receipt))
	assert.NotEmpty(t, receipt.TransactionID)

	resp, err := http.Get(base + "/api/v1/accounts/B")
	require.NoError(t, err)
	defer resp.Body.Close()

	var account struct {
		Balance json.Number `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&account))
	assert.Equal(t, "10", account.Balance.String())
}

func TestAppWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	base := startApp(t, cfg)

	resp, err := http.Get(base + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status["redis"])
}

func TestNewAppFailsOnUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.RedisURL = "redis://" + addr

	_, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.Error(t, err)
}

func TestNewAppFailsOnBadDatabaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "://not-a-url"

	_, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	require.Error(t, err)
}
