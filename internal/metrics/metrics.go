package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Series updated by the field agent's offline queue. They are registered with
// RegisterAgent.
var (
	AnswerSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsurvey_answer_submissions_total",
			Help: "Answer submissions by outcome (delivered, queued_offline, failed)",
		},
		[]string{"status"},
	)

	AnswerSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsurvey_answer_syncs_total",
			Help: "Pending answer sync attempts by outcome",
		},
		[]string{"result"},
	)

	PendingAnswers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldsurvey_pending_answers",
			Help: "Answers waiting in the offline queue",
		},
	)

	AnswersRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldsurvey_answers_rejected_total",
			Help: "Queued answers the server refused as invalid and moved out of the queue",
		},
	)
)

// Series updated by the API server. They are registered with Register.
var (
	AnswersStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsurvey_answers_stored_total",
			Help: "Answer writes received by the server by mode (single, batch) and result (ok, invalid, failed)",
		},
		[]string{"mode", "result"},
	)

	ReportGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsurvey_report_generations_total",
			Help: "Generated reports by type and outcome",
		},
		[]string{"type", "result"},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// UnmatchedRoute is the endpoint label for requests no route matched.
const UnmatchedRoute = "unmatched"

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		AnswersStored,
		ReportGenerations,
		RequestCounter,
		RequestDuration,
	)
}

func RegisterAgent(reg prometheus.Registerer) {
	reg.MustRegister(
		AnswerSubmissions,
		AnswerSyncs,
		PendingAnswers,
		AnswersRejected,
	)
}

// Middleware records request counts and latency labelled by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
