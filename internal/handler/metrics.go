package handler

import (
	"fmt"
	"net/http"

	"github.com/userhub/userhub/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "userhub_logins_total{status=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "userhub_logins_total{status=\"failure\"} %d\n", snap.LoginFailures)
	writeMetric(w, "userhub_tokens_revoked_total %d\n", snap.TokensRevoked)
	writeMetric(w, "userhub_auth_rejected_total %d\n", snap.AuthRejected)

	writeMetric(w, "userhub_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "userhub_users_updated_total %d\n", snap.UsersUpdated)
	writeMetric(w, "userhub_users_deleted_total %d\n", snap.UsersDeleted)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
