package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewBoardMetrics(t *testing.T) {
	metrics := newBoardMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newBoardMetricsWithRegisterer should not return nil")
	}
	if metrics.pollCycles == nil {
		t.Error("pollCycles counter vec should not be nil")
	}
	if metrics.pollDuration == nil {
		t.Error("pollDuration histogram should not be nil")
	}
	if metrics.ordersVisible == nil {
		t.Error("ordersVisible gauge should not be nil")
	}
	if metrics.novelOrders == nil {
		t.Error("novelOrders counter should not be nil")
	}
	if metrics.transitions == nil {
		t.Error("transitions counter vec should not be nil")
	}
	if metrics.transitionDuration == nil {
		t.Error("transitionDuration histogram should not be nil")
	}
}

func TestBoardMetrics_DoubleRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newBoardMetricsWithRegisterer(reg)
	second := newBoardMetricsWithRegisterer(reg)

	// Повторная регистрация не паникует и переиспользует коллекторы.
	first.RecordNovelOrders(2)
	second.RecordNovelOrders(1)

	var pb dto.Metric
	if err := first.novelOrders.Write(&pb); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	if got := pb.GetCounter().GetValue(); got != 3 {
		t.Fatalf("novelOrders = %v, want 3 (shared collector)", got)
	}
}

func TestBoardMetrics_Record(t *testing.T) {
	metrics := newBoardMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordPollCycle(PollResultOK)
	metrics.RecordPollCycle(PollResultFetchErr)
	metrics.RecordPollDuration(25 * time.Millisecond)
	metrics.SetOrdersVisible(7)
	metrics.RecordNovelOrders(0) // no-op
	metrics.RecordTransition(TransitionCommitted)
	metrics.RecordTransitionDuration(5 * time.Millisecond)

	var pb dto.Metric
	if err := metrics.ordersVisible.Write(&pb); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	if got := pb.GetGauge().GetValue(); got != 7 {
		t.Fatalf("ordersVisible = %v, want 7", got)
	}

	ok, err := metrics.pollCycles.GetMetricWithLabelValues(PollResultOK)
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	var okPb dto.Metric
	if err := ok.Write(&okPb); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	if got := okPb.GetCounter().GetValue(); got != 1 {
		t.Fatalf("pollCycles{ok} = %v, want 1", got)
	}
}
