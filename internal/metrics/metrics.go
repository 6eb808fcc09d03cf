package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoanghai1803/ilistas/internal/models"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

var (
	listsDesc = prometheus.NewDesc(
		"ilistas_lists",
		"Number of stored lists by kind",
		[]string{"kind"},
		nil,
	)
	itemsDesc = prometheus.NewDesc(
		"ilistas_items",
		"Number of stored items by list kind",
		[]string{"kind"},
		nil,
	)
)

// CollectionCollector is a custom Prometheus collector that reads list and
// item counts from the collection store on each scrape.
type CollectionCollector struct {
	store storage.CollectionStore
}

// Describe sends the metric descriptors to the channel.
func (c *CollectionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- listsDesc
	ch <- itemsDesc
}

// Collect loads the collection and emits list and item gauges.
func (c *CollectionCollector) Collect(ch chan<- prometheus.Metric) {
	col, err := c.store.Load(context.Background())
	if err != nil {
		slog.Error("failed to collect collection metrics", "error", err)
		return
	}

	var lists, items [2]float64 // ordinary, watched
	for _, l := range col {
		k := 0
		if l.ID == models.WatchedListID {
			k = 1
		}
		lists[k]++
		items[k] += float64(len(l.Items))
	}

	for k, kind := range []string{"ordinary", "watched"} {
		ch <- prometheus.MustNewConstMetric(listsDesc, prometheus.GaugeValue, lists[k], kind)
		ch <- prometheus.MustNewConstMetric(itemsDesc, prometheus.GaugeValue, items[k], kind)
	}
}

// Metrics holds the service's Prometheus registry and instruments. It
// implements lists.Observer.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	itemsWatched prometheus.Counter
	shareImports *prometheus.CounterVec
}

// New creates a registry with the Go runtime collectors, the HTTP and list
// event instruments, and a CollectionCollector over store.
func New(store storage.CollectionStore) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ilistas_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ilistas_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		itemsWatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ilistas_items_watched_total",
			Help: "Items moved into the watched list",
		}),
		shareImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ilistas_share_imports_total",
			Help: "Share link imports by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.itemsWatched,
		m.shareImports,
	)
	if store != nil {
		m.registry.MustRegister(&CollectionCollector{store: store})
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ItemWatched counts an item moved into the watched list.
func (m *Metrics) ItemWatched(string) {
	m.itemsWatched.Inc()
}

// ShareImported counts a share import by outcome.
func (m *Metrics) ShareImported(outcome string) {
	m.shareImports.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency, labeled by chi route
// pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
