package router

import (
	"net/http"
	"time"

	"flightwatch-bot/internal/interface/admin"
	"flightwatch-bot/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPath is where the Bot API delivers updates
const WebhookPath = "/telegram/webhook"

// NewHTTPRouter mounts the webhook and the ops endpoints. The operator
// subscription route is only mounted when subscriptions is not nil.
func NewHTTPRouter(webhook, subscriptions http.Handler, gatherer prometheus.Gatherer, logger logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))

	r.Handle(WebhookPath, webhook).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	}).Methods(http.MethodGet)
	if subscriptions != nil {
		r.Handle(admin.SubscriptionPath, subscriptions).Methods(http.MethodPut)
	}

	return r
}

func loggingMiddleware(logger logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
		})
	}
}
