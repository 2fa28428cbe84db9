package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/gotransfer/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		wantLabel  string
		statusCode int
	}{
		{
			name:       "uses route pattern for account path",
			method:     http.MethodGet,
			path:       "/api/v1/accounts/Id-123",
			wantLabel:  "/api/v1/accounts/{id}",
			statusCode: http.StatusNotFound,
		},
		{
			name:       "keeps transfer path",
			method:     http.MethodPost,
			path:       "/api/v1/accounts/transfer",
			wantLabel:  "/api/v1/accounts/transfer",
			statusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegistry(prometheus.NewRegistry())
			mw := NewMetricsMiddleware(m)

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			r := chi.NewRouter()
			r.Use(mw.Wrap)
			r.Post("/api/v1/accounts/transfer", next)
			r.Get("/api/v1/accounts/{id}", next)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := m.HTTPRequests.WithLabelValues(tc.method, tc.wantLabel, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestMetricsMiddlewareWithoutRouter(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	rr := httptest.NewRecorder()
	NewMetricsMiddleware(m).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/Id-9", nil))

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/accounts/{id}", "418")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected normalized counter to be 1, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "account path without suffix",
			input:    "/api/v1/accounts/Id-123",
			expected: "/api/v1/accounts/{id}",
		},
		{
			name:     "account path with suffix",
			input:    "/api/v1/accounts/Id-123/balance",
			expected: "/api/v1/accounts/{id}/balance",
		},
		{
			name:     "transfer path",
			input:    "/api/v1/accounts/transfer",
			expected: "/api/v1/accounts/transfer",
		},
		{
			name:     "non-matching path",
			input:    "/health",
			expected: "/health",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
