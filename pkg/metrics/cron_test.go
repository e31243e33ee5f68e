package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronJobMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("slot-generation")
	m.IncSuccess("slot-generation")
	m.IncFailure("order-sweeper")
	m.ObserveDuration("slot-generation", 250*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("slot-generation")); got != 2 {
		t.Fatalf("unexpected success count: %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("order-sweeper")); got != 1 {
		t.Fatalf("unexpected failure count: %v", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewCronJobMetrics(nil)
	m.IncSuccess("anything")
	m.IncFailure("")
	m.ObserveDuration("anything", time.Second)
}
