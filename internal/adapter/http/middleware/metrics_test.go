package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		route      string
		statusCode int
	}{
		{
			name:       "labels with route pattern",
			method:     http.MethodGet,
			path:       "/api/v1/accounts/01J5ABC",
			route:      "/api/v1/accounts/{id}",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "static route",
			method:     http.MethodPost,
			path:       "/health",
			route:      "/health",
			statusCode: http.StatusCreated,
		},
		{
			name:       "unmatched path",
			method:     http.MethodGet,
			path:       "/nope/12345",
			route:      unmatchedRoute,
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegisterer(prometheus.NewRegistry())

			handler := func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}
			r := chi.NewRouter()
			r.Use(NewMetricsMiddleware(m))
			r.Get("/api/v1/accounts/{id}", handler)
			r.Post("/health", handler)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			if got := testutil.ToFloat64(m.HTTPRequestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := m.HTTPRequests.WithLabelValues(tc.method, tc.route, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}
