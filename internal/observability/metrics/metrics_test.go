package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, reg prometheus.Gatherer, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return nil
}

func counterWithLabel(mf *dto.MetricFamily, name, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveSubmission("success", 0.01)
	m.ObserveSubmission("success", 0.02)
	m.ObserveSubmission("slot_taken", 0.01)
	m.ObserveTimeOptions("slots")
	m.ObserveStoreOp("save", "ok")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.ObservePush("ok")

	subs := family(t, reg, SubmissionsMetric)
	assert.Equal(t, 2.0, counterWithLabel(subs, "outcome", "success"))
	assert.Equal(t, 1.0, counterWithLabel(subs, "outcome", "slot_taken"))

	assert.Equal(t, 1.0, counterWithLabel(family(t, reg, StoreOpsMetric), "op", "save"))
	assert.Equal(t, 1.0, counterWithLabel(family(t, reg, LivePushesMetric), "status", "ok"))

	gauge := family(t, reg, LiveSessionsGauge)
	require.Len(t, gauge.GetMetric(), 1)
	assert.Equal(t, 1.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSubmission("success", 0.1)
	m.ObserveTimeOptions("slots")
	m.ObserveStoreOp("load", "ok")
	m.SessionOpened()
	m.SessionClosed()
	m.ObservePush("error")
}
