package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds only consolidation metrics so a run can be exported to a
// node_exporter textfile without Go runtime noise.
var Registry = prometheus.NewRegistry()

var (
	// ArtifactsProcessed tracks artifacts read per entity and artifact kind
	ArtifactsProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "abiregistry_artifacts_processed_total",
			Help: "Total number of artifacts read",
		},
		[]string{"entity", "kind"},
	)

	// ArtifactErrors tracks skipped artifacts per entity
	ArtifactErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "abiregistry_artifact_errors_total",
			Help: "Total number of artifacts skipped because of an error",
		},
		[]string{"entity"},
	)

	// RegistryWrites tracks registry files written per entity and file type
	RegistryWrites = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "abiregistry_registry_writes_total",
			Help: "Total number of registry files written",
		},
		[]string{"entity", "file"},
	)

	// AddressesDiscovered tracks chains found for an entity in the last run
	AddressesDiscovered = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "abiregistry_addresses_discovered",
			Help: "Number of chains with an address discovered in the last run",
		},
		[]string{"entity"},
	)

	// LastRunTimestamp is the completion time of the last run
	LastRunTimestamp = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "abiregistry_last_run_timestamp_seconds",
			Help: "Unix time the last consolidation finished",
		},
	)

	// RunDuration is the wall time of the last run
	RunDuration = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "abiregistry_run_duration_seconds",
			Help: "Duration of the last consolidation",
		},
	)
)

// File labels for RegistryWrites
const (
	FileDescriptor = "abi"
	FileAddresses  = "addresses"
)

// WriteTextfile writes the current metrics in text exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
