// Package metrics exposes prometheus collectors for the game lifecycle and
// the HTTP layer.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brm"

// Metrics holds the collectors of one process. It implements game.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	gamesCreated    prometheus.Counter
	playersEnrolled prometheus.Counter
	eventsSimulated *prometheus.CounterVec
	eliminations    prometheus.Counter
	vipEarnings     prometheus.Counter
	refunds         prometheus.Counter
	gamesDeleted    prometheus.Counter

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		gamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Total number of games created.",
		}),
		playersEnrolled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_enrolled_total",
			Help:      "Total number of players enrolled in created games.",
		}),
		eventsSimulated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_simulated_total",
			Help:      "Total number of simulate calls by outcome.",
		}, []string{"outcome"}),
		eliminations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eliminations_total",
			Help:      "Total number of eliminated players.",
		}),
		vipEarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vip_earnings_collected_total",
			Help:      "Total VIP earnings credited to wallets.",
		}),
		refunds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Total amount refunded on game deletion.",
		}),
		gamesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_deleted_total",
			Help:      "Total number of deleted games.",
		}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "route"}),
	}

	m.Registry.MustRegister(
		m.gamesCreated,
		m.playersEnrolled,
		m.eventsSimulated,
		m.eliminations,
		m.vipEarnings,
		m.refunds,
		m.gamesDeleted,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) GameCreated(players int) {
	m.gamesCreated.Inc()
	m.playersEnrolled.Add(float64(players))
}

func (m *Metrics) EventSimulated(outcome string, eliminated int) {
	m.eventsSimulated.WithLabelValues(outcome).Inc()
	m.eliminations.Add(float64(eliminated))
}

func (m *Metrics) EarningsCollected(amount int64) {
	m.vipEarnings.Add(float64(amount))
}

func (m *Metrics) GameDeleted(refund int64) {
	m.gamesDeleted.Inc()
	if refund > 0 {
		m.refunds.Add(float64(refund))
	}
}

// Handler returns an HTTP handler exposing the registered metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with HTTP metrics collection. Requests are
// labeled with the chi route pattern so game ids do not explode cardinality.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		method := strings.ToUpper(r.Method)

		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
