// Package extract reads one discovered artifact in its native schema and
// returns what it contributes for a single entity.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// Extract reads loc and returns the descriptor and addresses it holds for
// entity. haveDescriptor tells the extractor a descriptor was already
// captured this run, so an embedded one in a deployment record is skipped.
// Errors concern this artifact only.
func Extract(loc domain.Location, entity string, haveDescriptor bool) (domain.Extraction, error) {
	switch loc.Kind {
	case domain.ArtifactBuildOutput:
		return fromBuildOutput(loc)
	case domain.ArtifactBroadcastLog:
		return fromBroadcastLog(loc, entity)
	case domain.ArtifactDeployRecord:
		return fromDeployRecord(loc, haveDescriptor)
	default:
		return domain.Extraction{}, fmt.Errorf("unknown artifact kind %q", loc.Kind)
	}
}

// buildArtifact is the subset of compiler output this tool needs.
type buildArtifact struct {
	ABI json.RawMessage `json:"abi"`
}

func fromBuildOutput(loc domain.Location) (domain.Extraction, error) {
	var artifact buildArtifact
	if err := readJSON(loc.Path, &artifact); err != nil {
		return domain.Extraction{}, err
	}
	if !present(artifact.ABI) {
		return domain.Extraction{}, fmt.Errorf("%w: abi", ErrMissingField)
	}
	return domain.Extraction{
		Descriptor: domain.InterfaceDescriptor(artifact.ABI),
		Source:     domain.DescriptorFromBuildOutput,
	}, nil
}

// broadcastLog is a broadcast run record. Only CREATE-style entries carry a
// contract name and address.
type broadcastLog struct {
	Transactions []broadcastTx `json:"transactions"`
}

type broadcastTx struct {
	Hash            string `json:"hash"`
	TransactionType string `json:"transactionType"`
	ContractName    string `json:"contractName"`
	ContractAddress string `json:"contractAddress"`
}

func fromBroadcastLog(loc domain.Location, entity string) (domain.Extraction, error) {
	var log broadcastLog
	if err := readJSON(loc.Path, &log); err != nil {
		return domain.Extraction{}, err
	}

	addresses := domain.AddressMap{}
	for _, tx := range log.Transactions {
		if tx.ContractName != entity || tx.ContractAddress == "" {
			continue
		}
		// A later deployment in the same run supersedes an earlier one
		addresses[loc.ChainID] = tx.ContractAddress
	}
	return domain.Extraction{Addresses: addresses}, nil
}

// deployRecord is a per-network deployment file.
type deployRecord struct {
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
}

func fromDeployRecord(loc domain.Location, haveDescriptor bool) (domain.Extraction, error) {
	var record deployRecord
	if err := readJSON(loc.Path, &record); err != nil {
		return domain.Extraction{}, err
	}

	ext := domain.Extraction{Addresses: domain.AddressMap{}}
	if record.Address != "" {
		ext.Addresses[loc.ChainID] = record.Address
	}
	if !haveDescriptor && present(record.ABI) {
		ext.Descriptor = domain.InterfaceDescriptor(record.ABI)
		ext.Source = domain.DescriptorFromDeployRecord
	}
	return ext, nil
}
