package registry

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// Summary counts the members of a descriptor.
type Summary struct {
	Functions       int
	Events          int
	Errors          int
	ConstructorArgs int
}

// Summarize parses descriptor as a contract ABI and counts its members.
func Summarize(descriptor domain.InterfaceDescriptor) (Summary, error) {
	parsed, err := abi.JSON(bytes.NewReader(descriptor))
	if err != nil {
		return Summary{}, fmt.Errorf("parsing abi: %w", err)
	}
	return Summary{
		Functions:       len(parsed.Methods),
		Events:          len(parsed.Events),
		Errors:          len(parsed.Errors),
		ConstructorArgs: len(parsed.Constructor.Inputs),
	}, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("%d functions, %d events, %d errors", s.Functions, s.Events, s.Errors)
}
