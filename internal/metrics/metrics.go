// Package metrics holds the portal's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_gate_decisions_total",
		Help: "Access gate decisions by outcome",
	}, []string{"outcome"})

	AssetOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_asset_operations_total",
		Help: "Asset workflow operations by kind, operation and outcome",
	}, []string{"kind", "op", "outcome"})

	CompensationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_asset_compensation_failures_total",
		Help: "Compensating deletes that failed and left an orphaned object",
	}, []string{"kind"})

	OrphanedObjects = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portal_asset_orphaned_objects",
		Help: "Objects in storage not referenced by any row, as of the last audit",
	}, []string{"kind"})

	DanglingRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portal_asset_dangling_rows",
		Help: "Rows whose file_url points at a missing object, as of the last audit",
	}, []string{"kind"})
)
