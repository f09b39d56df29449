package domain

import "encoding/json"

// SourceKind selects how a source root is walked.
type SourceKind string

const (
	// SourceBuildOutput is a flat compiler output directory: <root>/<Name>.sol/<Name>.json.
	SourceBuildOutput SourceKind = "build-output"
	// SourceBroadcast is a broadcast tree: <root>/<script>/<network>/run-latest.json.
	SourceBroadcast SourceKind = "broadcast"
	// SourceDeployments is a deployment-record tree: <root>/<network>/<Name>.json.
	SourceDeployments SourceKind = "deployments"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceBuildOutput, SourceBroadcast, SourceDeployments:
		return true
	}
	return false
}

// SourceRoot is one directory produced by a build toolchain.
type SourceRoot struct {
	Name string
	Kind SourceKind
	Path string
}

// TrackedEntity is a contract type whose interface and addresses are consolidated.
type TrackedEntity struct {
	Name string
	// InterfacePaths overrides the build-output naming convention when set.
	InterfacePaths []string
	// Roots are walked in order; later roots override earlier ones per chain.
	Roots []SourceRoot
}

// InterfaceDescriptor is a contract ABI kept as raw JSON.
type InterfaceDescriptor json.RawMessage

// DescriptorSource records where a descriptor was captured from.
type DescriptorSource string

const (
	DescriptorNone             DescriptorSource = ""
	DescriptorFromBuildOutput  DescriptorSource = "build-output"
	DescriptorFromDeployRecord DescriptorSource = "deployment-record"
)

// Authoritative reports whether a descriptor from this source may replace a
// persisted one.
func (s DescriptorSource) Authoritative() bool {
	return s == DescriptorFromBuildOutput
}

// AddressMap maps a chain to the deployed address of one entity.
type AddressMap map[ChainID]string
