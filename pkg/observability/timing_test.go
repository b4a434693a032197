package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_StopRecordsMetrics(t *testing.T) {
	mem := NewInMemoryMetrics()

	d := StartTimer("schedule").
		WithMetrics(mem).
		WithTags(T("policy", "baseline")).
		Stop()
	assert.GreaterOrEqual(t, d, time.Duration(0))

	tags := []Tag{T("policy", "baseline"), T("operation", "schedule")}
	assert.Equal(t, int64(1), mem.GetCounter(MetricOperationTotal, tags...))
	require.Len(t, mem.GetTimings(MetricOperationDuration, tags...), 1)
	assert.Equal(t, int64(0), mem.GetCounter(MetricOperationErrors, tags...))
}

func TestTimer_StopWithErrorCountsErrors(t *testing.T) {
	mem := NewInMemoryMetrics()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	StartTimer("schedule").
		WithLogger(logger).
		WithMetrics(mem).
		StopWithError(errors.New("boom"))

	tags := []Tag{T("operation", "schedule")}
	assert.Equal(t, int64(1), mem.GetCounter(MetricOperationTotal, tags...))
	assert.Equal(t, int64(1), mem.GetCounter(MetricOperationErrors, tags...))
	assert.Contains(t, buf.String(), "operation failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestTimer_StopWithNilErrorLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	StartTimer("evaluate").WithLogger(logger).StopWithError(nil)

	assert.Contains(t, buf.String(), "operation completed")
	assert.NotContains(t, buf.String(), "operation failed")
}
