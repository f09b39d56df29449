package domain

import "fmt"

// ArtifactKind is the on-disk schema of a discovered artifact.
type ArtifactKind string

const (
	ArtifactBuildOutput  ArtifactKind = "build-output"
	ArtifactBroadcastLog ArtifactKind = "broadcast-log"
	ArtifactDeployRecord ArtifactKind = "deployment-record"
)

// Location is one candidate artifact file.
type Location struct {
	Kind    ArtifactKind
	Path    string
	Root    string
	ChainID ChainID // empty for build output
	Network string  // network directory name, empty for build output
}

// Extraction is what a single artifact contributed.
type Extraction struct {
	Descriptor InterfaceDescriptor
	Source     DescriptorSource
	Addresses  AddressMap
}

// ArtifactError is a per-artifact failure that did not abort the run.
type ArtifactError struct {
	Entity string `json:"entity"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e ArtifactError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Entity, e.Path, e.Reason)
}
