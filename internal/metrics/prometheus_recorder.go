package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "slidebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	deckDuration  *prom.HistogramVec
	talks         prom.Gauge
	auditFindings *prom.CounterVec
	lastSuccess   prom.Gauge
}

// NewPrometheusRecorder constructs metrics and registers them on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.ExponentialBuckets(1, 2, 10),
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.deckDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "deck_build_duration_seconds",
		Help:      "Duration of one converter run",
		Buckets:   prom.ExponentialBuckets(0.25, 2, 10),
	}, []string{"slug", "result"})
	pr.talks = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "talks",
		Help:      "Talks discovered by the last build",
	})
	pr.auditFindings = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "audit_findings_total",
		Help:      "Unresolved asset references left in published pages",
	}, []string{"kind"})
	pr.lastSuccess = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful build",
	})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.deckDuration, pr.talks, pr.auditFindings, pr.lastSuccess)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
	if outcome == BuildOutcomeSuccess || outcome == BuildOutcomeWarning {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) ObserveDeckDuration(slug string, d time.Duration, success bool) {
	if p == nil || p.deckDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.deckDuration.WithLabelValues(slug, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetTalks(n int) {
	if p == nil || p.talks == nil {
		return
	}
	p.talks.Set(float64(n))
}

func (p *PrometheusRecorder) AddAuditFindings(kind string, n int) {
	if p == nil || p.auditFindings == nil || n <= 0 {
		return
	}
	p.auditFindings.WithLabelValues(kind).Add(float64(n))
}
