package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/engagement-funnel/internal/models"
)

func TestMetricsServiceRecordsStagesAndRows(t *testing.T) {
	m := NewMetricsService()

	m.ObserveStage("load", 20*time.Millisecond, nil)
	m.ObserveStage("load", 10*time.Millisecond, errors.New("bad row"))
	m.SetRows(models.DatasetSubmissions, "raw", 12)
	m.SetRows(models.DatasetSubmissions, "raw", 14)
	m.RecordRun(true)
	m.RecordRun(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageFailures.WithLabelValues("load")))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.datasetRows.WithLabelValues("project_submissions", "raw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(runStatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(runStatusFailure)))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)

	expected := `
# HELP funnel_runs_total Completed funnel runs by outcome
# TYPE funnel_runs_total counter
funnel_runs_total{status="failure"} 1
funnel_runs_total{status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Gatherer(), strings.NewReader(expected), "funnel_runs_total"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveStage("load", time.Second, nil)
		m.SetRows(models.DatasetEngagement, "raw", 1)
		m.RecordRun(true)
		m.ObserveDBQuery("enrollments", time.Second)
		m.ObserveCacheWrite(time.Second)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "funnel.prom")))
	assert.NotNil(t, m.Gatherer())
}

func TestMetricsServiceWriteTextfile(t *testing.T) {
	m := NewMetricsService()
	m.SetRows(models.DatasetEnrollments, "loaded", 1640)

	path := filepath.Join(t.TempDir(), "funnel.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `funnel_rows{dataset="enrollments",stage="loaded"} 1640`)

	assert.NoError(t, m.WriteTextfile(""))
}
