// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 流水线指标
	pipelineRunsTotal    *prometheus.CounterVec
	pipelineRunDuration  *prometheus.HistogramVec
	completionsTotal     *prometheus.CounterVec
	completionDuration   *prometheus.HistogramVec
	phaseTransitionTotal *prometheus.CounterVec

	// 存储指标
	storeWritesTotal   *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// NewCollector 创建注册到默认 Registry 的收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer, prometheus.DefaultGatherer, logger)
}

// NewCollectorWithRegistry 创建注册到指定 Registry 的收集器
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		registerer: reg,
		gatherer:   gatherer,
		logger:     logger.With(zap.String("component", "metrics")),
	}
	factory := promauto.With(reg)

	// 流水线指标
	c.pipelineRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of artifact pipeline runs",
		},
		[]string{"kind", "origin", "reason"},
	)

	c.pipelineRunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Artifact pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	c.completionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Total number of text completion calls",
		},
		[]string{"kind", "status"},
	)

	c.completionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Text completion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	c.phaseTransitionTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Total number of project phase transitions",
		},
		[]string{"from_phase", "to_phase"},
	)

	// 存储指标
	c.storeWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Total number of artifact store writes",
		},
		[]string{"backend", "collection", "status"},
	)

	c.storeQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Artifact store query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// 数据库指标
	c.dbConnectionsOpen = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🔁 流水线指标记录
// =============================================================================

// RecordPipelineRun 记录一次流水线运行；reason 为空表示直接抽取成功
func (c *Collector) RecordPipelineRun(kind, origin, reason string, duration time.Duration) {
	if reason == "" {
		reason = "none"
	}
	c.pipelineRunsTotal.WithLabelValues(kind, origin, reason).Inc()
	c.pipelineRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCompletion 记录一次文本补全调用
func (c *Collector) RecordCompletion(kind, status string, duration time.Duration) {
	c.completionsTotal.WithLabelValues(kind, status).Inc()
	c.completionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordPhaseTransition 记录项目阶段切换
func (c *Collector) RecordPhaseTransition(from, to string) {
	c.phaseTransitionTotal.WithLabelValues(from, to).Inc()
}

// =============================================================================
// 💾 存储指标记录
// =============================================================================

// RecordStoreWrite 记录一次存储写入
func (c *Collector) RecordStoreWrite(backend, collection string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.storeWritesTotal.WithLabelValues(backend, collection, status).Inc()
}

// RecordStoreQuery 记录一次存储查询
func (c *Collector) RecordStoreQuery(backend string, duration time.Duration) {
	c.storeQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// Handler 返回暴露本收集器所在 Registry 的 HTTP 处理器
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
