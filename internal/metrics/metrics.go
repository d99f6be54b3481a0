// Package metrics exposes the Prometheus collectors shared by the harvest
// subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalFetches tracks the number of catalog documents requested.
	TotalFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_fetches_total",
		Help: "The total number of catalog document fetches attempted.",
	})
	// TotalTransportErrors tracks fetches that failed before a body arrived.
	TotalTransportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_transport_errors_total",
		Help: "The total number of fetches that failed with a transport error.",
	})
	// TotalShapeErrors tracks bodies that could not be decoded as documents.
	TotalShapeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_shape_errors_total",
		Help: "The total number of response bodies that were not catalog documents.",
	})
	// TotalRecords tracks collection records recognized across all harvests.
	TotalRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_records_total",
		Help: "The total number of collection records harvested.",
	})
)
