package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics counts what the edge pipeline decided, partitioned by
// rate-limit category and session outcome. Low cardinality only: the
// identifier never becomes a label.
type PipelineMetrics struct {
	decisions      *prometheus.CounterVec
	sessionRefresh *prometheus.CounterVec
	redirects      *prometheus.CounterVec
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetrics     *PipelineMetrics
)

func Pipeline(cfg Config) *PipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineMetrics = newPipelineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return pipelineMetrics
}

func ResetPipelineMetricsForTest() {
	pipelineMetricsOnce = sync.Once{}
	pipelineMetrics = nil
}

func newPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "guardiao"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "guardiao_ratelimit_decisions_total",
			Help:        "Rate limiter verdicts by bucket.",
			ConstLabels: constLabels,
		},
		[]string{"category", "result"}, // allowed | limited
	)

	sessionRefresh := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "guardiao_session_refresh_total",
			Help:        "Session refresh outcomes at the edge.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // authenticated | anonymous | failed
	)

	redirects := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "guardiao_access_redirects_total",
			Help:        "Access-policy redirects to the login page.",
			ConstLabels: constLabels,
		},
		[]string{"reason"}, // unauthenticated | rate_limit
	)

	registerer.MustRegister(decisions, sessionRefresh, redirects)
	return &PipelineMetrics{
		decisions:      decisions,
		sessionRefresh: sessionRefresh,
		redirects:      redirects,
	}
}

func (m *PipelineMetrics) RecordDecision(category string, allowed bool) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "limited"
	}
	m.decisions.WithLabelValues(category, result).Inc()
}

func (m *PipelineMetrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.sessionRefresh.WithLabelValues(result).Inc()
}

func (m *PipelineMetrics) RecordRedirect(reason string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(reason).Inc()
}
