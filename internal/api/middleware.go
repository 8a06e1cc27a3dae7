package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records request counts and latencies per route. Dynamic path
// segments are collapsed so id values do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		path := collapsePath(r.URL.Path)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

func collapsePath(p string) string {
	for _, prefix := range []string{"/v1/orders/", "/v1/trucks/", "/v1/missions/"} {
		if rest, ok := strings.CutPrefix(p, prefix); ok && rest != "" {
			if strings.HasSuffix(rest, "/events/stream") {
				return prefix + ":id/events/stream"
			}
			return prefix + ":id"
		}
	}
	return p
}
