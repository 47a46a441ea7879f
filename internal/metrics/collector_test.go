package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.pipelineRunsTotal)
	assert.NotNil(t, collector.completionDuration)
	assert.NotNil(t, collector.storeWritesTotal)
	assert.NotNil(t, collector.phaseTransitionTotal)
}

func TestCollector_RecordPipelineRun(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), nil)

	collector.RecordPipelineRun("user_story", "extracted", "", 200*time.Millisecond)
	collector.RecordPipelineRun("test_result", "fallback", "SCHEMA_VIOLATION", time.Second)
	collector.RecordPipelineRun("test_result", "fallback", "SCHEMA_VIOLATION", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.pipelineRunsTotal.WithLabelValues("user_story", "extracted", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.pipelineRunsTotal.WithLabelValues("test_result", "fallback", "SCHEMA_VIOLATION")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.pipelineRunDuration))
}

func TestCollector_RecordCompletion(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCompletion("file_manifest", "ok", 500*time.Millisecond)
	collector.RecordCompletion("file_manifest", "error", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.completionsTotal.WithLabelValues("file_manifest", "error")))
	assert.Greater(t, testutil.CollectAndCount(collector.completionDuration), 0)
}

func TestCollector_RecordStoreWrite(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordStoreWrite("memory", "user_stories", nil)
	collector.RecordStoreWrite("redis", "tests", errors.New("down"))
	collector.RecordStoreQuery("memory", 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.storeWritesTotal.WithLabelValues("memory", "user_stories", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.storeWritesTotal.WithLabelValues("redis", "tests", "error")))
	assert.Greater(t, testutil.CollectAndCount(collector.storeQueryDuration), 0)
}

func TestCollector_RecordPhaseTransition(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordPhaseTransition("setup", "requirements")
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.phaseTransitionTotal.WithLabelValues("setup", "requirements")))
}

func TestCollector_UpdateConnectionPool(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDBConnections("sqlite", 10, 5)

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("sqlite")))
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.dbConnectionsIdle.WithLabelValues("sqlite")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordPipelineRun("test_case", "extracted", "", time.Millisecond)
			collector.RecordStoreWrite("sql", "tests", nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.pipelineRunsTotal.WithLabelValues("test_case", "extracted", "none")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.storeWritesTotal.WithLabelValues("sql", "tests", "ok")))
}

func TestCollector_CustomRegistryHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	ns := nextTestNamespace()
	collector := NewCollectorWithRegistry(ns, registry, registry, zap.NewNop())

	collector.RecordPipelineRun("user_story", "fallback", "PARSE", time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ns+`_pipeline_runs_total{kind="user_story",origin="fallback",reason="PARSE"} 1`)
}
