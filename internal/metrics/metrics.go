// Package metrics provides Prometheus metrics for the sync engine.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accsync_api_requests_total",
			Help: "Total number of remote API requests",
		},
		[]string{"operation", "status"},
	)

	tokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accsync_token_refreshes_total",
			Help: "Total number of token refresh attempts",
		},
		[]string{"result"},
	)

	reconcileItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accsync_reconcile_items_total",
			Help: "Total reconciled file items by outcome",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one remote API call.
func RecordAPIRequest(operation string, status int) {
	apiRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

// RecordTokenRefresh records a token refresh attempt ("success"/"failure").
func RecordTokenRefresh(result string) {
	tokenRefreshesTotal.WithLabelValues(result).Inc()
}

// RecordReconcileItem records one reconciliation outcome.
func RecordReconcileItem(result string) {
	reconcileItemsTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
