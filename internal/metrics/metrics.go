package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Onboarding gate

	OnboardingLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shell",
		Name:      "onboarding_loads_total",
		Help:      "Onboarding flag reads, by outcome (first_launch, returning, fail_open).",
	}, []string{"outcome"})

	OnboardingWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shell",
		Name:      "onboarding_writes_total",
		Help:      "Onboarding flag writes, by operation and outcome.",
	}, []string{"op", "outcome"})

	// Auth flow

	AuthTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shell",
		Name:      "auth_transitions_total",
		Help:      "Auth flow step transitions.",
	}, []string{"from", "to"})

	PhoneValidationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shell",
		Name:      "auth_phone_validation_failures_total",
		Help:      "Phone submissions rejected by the format rule.",
	})

	VerificationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shell",
		Name:      "verification_duration_seconds",
		Help:      "Duration of send/verify calls against the verification service.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 1.5, 2, 5, 10},
	}, []string{"op", "outcome"})

	// Sessions

	SessionsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shell",
		Name:      "sessions_live",
		Help:      "Number of live shell sessions.",
	})

	SessionsReapedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shell",
		Name:      "sessions_reaped_total",
		Help:      "Sessions closed by the idle reaper.",
	})

	ReaperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shell",
		Name:      "reaper_cycle_duration_seconds",
		Help:      "Time taken for one reaper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shell",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shell",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		OnboardingLoadsTotal,
		OnboardingWritesTotal,
		AuthTransitionsTotal,
		PhoneValidationFailuresTotal,
		VerificationDuration,
		SessionsLive,
		SessionsReapedTotal,
		ReaperCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
