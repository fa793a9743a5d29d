// Package metrics registra las métricas Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ShareResolutions por resultado: ok, denied, error.
	ShareResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharing_share_resolutions_total",
			Help: "Resoluciones de links públicos por resultado",
		},
		[]string{"outcome"},
	)

	// GrantResolutions por resultado: ok, denied, error.
	GrantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharing_grant_resolutions_total",
			Help: "Lecturas de partners bajo consent grants por resultado",
		},
		[]string{"outcome"},
	)

	// Transitions de entidades: entity=share|connection|grant, to=estado destino.
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharing_transitions_total",
			Help: "Transiciones de estado aplicadas",
		},
		[]string{"entity", "to"},
	)

	// TasksTotal de la cola best-effort.
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharing_tasks_total",
			Help: "Tareas best-effort por nombre y resultado",
		},
		[]string{"task", "result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharing_http_requests_total",
			Help: "Requests HTTP",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharing_http_request_duration_seconds",
			Help:    "Duración de requests HTTP",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware mide requests. Usa el route pattern de chi como label para no
// filtrar tokens ni ids a la cardinalidad (el token público va en el path).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
