package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/trendscout/config"
)

// Prometheus collectors are package-level so repeated Telemetry construction
// (tests, reloads) never double-registers.
var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscout_pipeline_runs_total",
		Help: "Pipeline runs by outcome.",
	}, []string{"outcome"})
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscout_discovery_calls_total",
		Help: "Discovery provider calls by provider and outcome.",
	}, []string{"provider", "outcome"})
	llmCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscout_llm_calls_total",
		Help: "Text generation calls by outcome.",
	}, []string{"outcome"})
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscout_decisions_total",
		Help: "Approval gate decisions by action.",
	}, []string{"action"})
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trendscout_stage_duration_seconds",
		Help:    "Pipeline stage durations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// Telemetry tracks pipeline activity in-process and mirrors it to prometheus.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	mu      sync.RWMutex
	metrics Metrics
}

// Metrics holds cumulative counters; Snapshot returns a copy.
type Metrics struct {
	PipelineRuns     int64
	SuccessfulRuns   int64
	FailedRuns       int64
	ProviderCalls    map[string]int64
	ProviderFailures map[string]int64
	LLMCalls         int64
	LLMFailures      int64
	Decisions        map[string]int64
	IdeasGenerated   int64
}

func NewTelemetry(cfg config.TelemetryConfig, logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags)
	}
	return &Telemetry{
		config: cfg,
		logger: logger,
		metrics: Metrics{
			ProviderCalls:    make(map[string]int64),
			ProviderFailures: make(map[string]int64),
			Decisions:        make(map[string]int64),
		},
	}
}

func (t *Telemetry) enabled() bool { return t != nil && t.config.Enabled }

// RecordPipelineRun records one completed pipeline invocation.
func (t *Telemetry) RecordPipelineRun(success bool, duration time.Duration) {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	t.metrics.PipelineRuns++
	if success {
		t.metrics.SuccessfulRuns++
	} else {
		t.metrics.FailedRuns++
	}
	t.mu.Unlock()
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	pipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordStage records one stage's wall time.
func (t *Telemetry) RecordStage(stage string, duration time.Duration) {
	if !t.enabled() {
		return
	}
	stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordProviderCall records one discovery provider call.
func (t *Telemetry) RecordProviderCall(provider string, err error) {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	t.metrics.ProviderCalls[provider]++
	if err != nil {
		t.metrics.ProviderFailures[provider]++
	}
	t.mu.Unlock()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	providerCalls.WithLabelValues(provider, outcome).Inc()
}

// RecordLLMCall records one text-generation call.
func (t *Telemetry) RecordLLMCall(err error, duration time.Duration) {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	t.metrics.LLMCalls++
	if err != nil {
		t.metrics.LLMFailures++
	}
	t.mu.Unlock()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	llmCalls.WithLabelValues(outcome).Inc()
}

// RecordDecision records an approval gate action.
func (t *Telemetry) RecordDecision(action string) {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	t.metrics.Decisions[action]++
	t.mu.Unlock()
	decisions.WithLabelValues(action).Inc()
}

// RecordIdeas records the number of ideas produced for one platform.
func (t *Telemetry) RecordIdeas(platform string, count int) {
	if !t.enabled() {
		return
	}
	t.mu.Lock()
	t.metrics.IdeasGenerated += int64(count)
	t.mu.Unlock()
}

// Snapshot returns a copy of the current metrics.
func (t *Telemetry) Snapshot() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.metrics
	out.ProviderCalls = make(map[string]int64, len(t.metrics.ProviderCalls))
	for k, v := range t.metrics.ProviderCalls {
		out.ProviderCalls[k] = v
	}
	out.ProviderFailures = make(map[string]int64, len(t.metrics.ProviderFailures))
	for k, v := range t.metrics.ProviderFailures {
		out.ProviderFailures[k] = v
	}
	out.Decisions = make(map[string]int64, len(t.metrics.Decisions))
	for k, v := range t.metrics.Decisions {
		out.Decisions[k] = v
	}
	return out
}
