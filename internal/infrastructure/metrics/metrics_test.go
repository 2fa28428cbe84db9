package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.TransfersCommitted == nil || m.HTTPRequests == nil || m.Notifications == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransferCommitted(decimal.NewFromInt(10), time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecorders(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.TransferCommitted(decimal.NewFromInt(10), time.Millisecond)
	m.TransferCommitted(decimal.RequireFromString("2.5"), time.Millisecond)
	m.TransferRejected("insufficient_funds")
	m.AccountCreated()
	m.NotificationDelivered()
	m.NotificationDelivered()
	m.NotificationDropped()

	tests := []struct {
		name  string
		label string
		want  float64
	}{
		{name: "gotransfer_transfers_committed_total", want: 2},
		{name: "gotransfer_transfer_errors_total", label: "insufficient_funds", want: 1},
		{name: "gotransfer_accounts_created_total", want: 1},
		{name: "gotransfer_notifications_total", label: "delivered", want: 2},
		{name: "gotransfer_notifications_total", label: "dropped", want: 1},
	}

	for _, tt := range tests {
		if got := counterValue(t, registry, tt.name, tt.label); got != tt.want {
			t.Fatalf("%s{%s} = %v, want %v", tt.name, tt.label, got, tt.want)
		}
	}
}

// counterValue sums the counter samples of a family, optionally filtered by label value.
func counterValue(t *testing.T, registry *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if label != "" {
				matched := false
				for _, pair := range metric.GetLabel() {
					if pair.GetValue() == label {
						matched = true
					}
				}
				if !matched {
					continue
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
