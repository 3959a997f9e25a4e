// ABOUTME: Prometheus recorder for chat service calls, HTTP traffic, and live sessions
// ABOUTME: Serves its own registry through promhttp for the /metrics route

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects tutor metrics into a private registry.
type Recorder struct {
	registry *prometheus.Registry

	serviceCalls    *prometheus.CounterVec
	serviceDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		serviceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutor_service_calls_total",
				Help: "Calls to the remote chat service by method, path, and outcome",
			},
			[]string{"method", "path", "outcome"},
		),
		serviceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutor_service_call_duration_seconds",
				Help:    "Duration of calls to the remote chat service",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutor_http_requests_total",
				Help: "HTTP requests served by method and status code",
			},
			[]string{"method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutor_http_request_duration_seconds",
				Help:    "Time to serve HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// ObserveCall records one chat service call. It satisfies chatapi.Observer.
func (r *Recorder) ObserveCall(method, path, outcome string, d time.Duration) {
	r.serviceCalls.WithLabelValues(method, path, outcome).Inc()
	r.serviceDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// TrackSessions exports count() as the number of live conversations.
// Call it at most once per Recorder.
func (r *Recorder) TrackSessions(count func() int) {
	promauto.With(r.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tutor_sessions",
			Help: "Conversations currently held in memory",
		},
		func() float64 { return float64(count()) },
	)
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware counts every request next serves.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)
		r.httpRequests.WithLabelValues(req.Method, strconv.Itoa(sw.status)).Inc()
		r.httpDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	})
}

// statusWriter remembers the status code. It forwards Flush so event
// streams keep working behind the middleware.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.wroteHeader = true
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
