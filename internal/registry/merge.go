// Package registry owns the consolidated output directory: one ABI file and
// one address file per tracked entity.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// MergeAddresses returns the union of existing and incoming. Incoming
// values win for chains present in both; nothing from existing is dropped.
// Neither argument is modified.
func MergeAddresses(existing, incoming domain.AddressMap) domain.AddressMap {
	merged := make(domain.AddressMap, len(existing)+len(incoming))
	for chain, addr := range existing {
		merged[chain] = addr
	}
	for chain, addr := range incoming {
		merged[chain] = addr
	}
	return merged
}

// EncodeAddresses renders an address map as the on-disk flat JSON object.
// Keys are sorted so equal maps always encode to equal bytes.
func EncodeAddresses(addresses domain.AddressMap) ([]byte, error) {
	if addresses == nil {
		addresses = domain.AddressMap{}
	}
	data, err := json.MarshalIndent(addresses, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// EncodeDescriptor normalises descriptor whitespace to two-space indent.
// Member order is preserved as produced by the compiler.
func EncodeDescriptor(descriptor domain.InterfaceDescriptor) ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, bytes.TrimSpace(descriptor)); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
