package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSegmentsDispatchedCounts(t *testing.T) {
	SegmentsDispatched.WithLabelValues("show").Inc()
	if got := testutil.ToFloat64(SegmentsDispatched.WithLabelValues("show")); got < 1 {
		t.Fatalf("expected at least 1 show dispatch recorded, got %v", got)
	}
}

func TestDispatcherReconnectsCounts(t *testing.T) {
	before := testutil.ToFloat64(DispatcherReconnects)
	DispatcherReconnects.Inc()
	after := testutil.ToFloat64(DispatcherReconnects)
	if after != before+1 {
		t.Fatalf("expected reconnect counter to increment by 1, got %v -> %v", before, after)
	}
}
