package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()

	c.RecordRun("sink", "submitted")
	c.RecordRun("sink", "submitted")
	c.RecordRun("source", "config_parse")
	c.RecordRequest("POST", 204, 10*time.Millisecond)
	c.RecordRequest("GET", 0, time.Millisecond)
	c.ObserveStage("sink", "validated", 2*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.pipelineRuns.WithLabelValues("sink", "submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pipelineRuns.WithLabelValues("source", "config_parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("POST", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.stageDuration))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordRun("sink", "submitted")
	c.RecordRequest("GET", 200, time.Second)
	c.ObserveStage("sink", "loaded", time.Second)
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordRun("sink", "submitted")

	path := filepath.Join(t.TempDir(), "nebula_io.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `nebula_io_pipeline_runs_total{kind="sink",outcome="submitted"} 1`)
}
