package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-api/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
	EventsPublished *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_events_published_total",
			Help:      "Cart events handed to the publisher by type and result.",
		}, []string{"type", "result"}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.InFlight,
		m.EventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request count and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		m.InFlight.Inc()
		start := time.Now()
		defer func() {
			m.InFlight.Dec()
			route := "unknown"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}()
		next.ServeHTTP(ww, r)
	})
}

type instrumentedPublisher struct {
	next    events.Publisher
	counter *prometheus.CounterVec
}

// InstrumentPublisher counts every publish attempt by event type and outcome.
func (m *Metrics) InstrumentPublisher(p events.Publisher) events.Publisher {
	return &instrumentedPublisher{next: p, counter: m.EventsPublished}
}

func (p *instrumentedPublisher) Publish(ctx context.Context, event events.CartEvent) error {
	err := p.next.Publish(ctx, event)
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.counter.WithLabelValues(string(event.Type), result).Inc()
	return err
}

func (p *instrumentedPublisher) Close() error {
	return p.next.Close()
}
