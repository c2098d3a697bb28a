// Package metrics expone contadores Prometheus del servicio en un registro propio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "project_tracking"

// Metrics colectores del servicio.
type Metrics struct {
	registry       *prometheus.Registry
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	partMutations  *prometheus.CounterVec
	storeConflicts *prometheus.CounterVec
}

// New crea el registro con colectores de proceso y runtime de Go.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de peticiones HTTP.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		partMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "part_mutations_total",
			Help:      "Mutaciones de piezas por operación y resultado.",
		}, []string{"operation", "result"}),
		storeConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_conflicts_total",
			Help:      "Conflictos de versión detectados al escribir en el almacén.",
		}, []string{"operation"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.partMutations,
		m.storeConflicts,
	)
	return m
}

// ObserveHTTP registra una petición ya respondida. route es la ruta con parámetros (/api/parts/:id).
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordMutation result: ok, rejected, conflict, error.
func (m *Metrics) RecordMutation(operation, result string) {
	m.partMutations.WithLabelValues(operation, result).Inc()
}

// RecordConflict cuenta un intento perdido por versión obsoleta.
func (m *Metrics) RecordConflict(operation string) {
	m.storeConflicts.WithLabelValues(operation).Inc()
}

// Handler exposición en formato texto de Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry para tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
