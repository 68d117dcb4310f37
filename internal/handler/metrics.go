package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/store"
)

// Inventory metrics.
var (
	inventoryItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_items",
			Help: "Number of items currently in the inventory",
		},
	)

	inventoryValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_value_total",
			Help: "Sum of unit price times stock over all items",
		},
	)

	inventoryMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_mutations_total",
			Help: "Inventory mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	inventoryExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_exports_total",
			Help: "Inventory exports by destination and result",
		},
		[]string{"destination", "result"},
	)
)

// recordInventory refreshes both inventory gauges from a single read of s.
func recordInventory(s store.Store) {
	items := s.List("")
	inventoryItems.Set(float64(len(items)))
	inventoryValue.Set(model.TotalOf(items))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
