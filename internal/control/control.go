package control

import (
	"context"
	"time"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// Publisher mirrors registry state to an external store after each entity
type Publisher interface {
	// PublishAddresses adds or overwrites the addresses of an entity
	PublishAddresses(ctx context.Context, entity string, addresses domain.AddressMap) error

	// PublishDescriptor stores the ABI of an entity
	PublishDescriptor(ctx context.Context, entity string, descriptor domain.InterfaceDescriptor) error

	// MarkRun records a completed run
	MarkRun(ctx context.Context, runID string, at time.Time) error
}
