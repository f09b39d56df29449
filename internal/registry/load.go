package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// Snapshot is the registry as read back from disk.
type Snapshot struct {
	Descriptors map[string]domain.InterfaceDescriptor
	Addresses   map[string]domain.AddressMap
}

// Names returns every entity with a descriptor or an address map, sorted.
func (s *Snapshot) Names() []string {
	seen := make(map[string]struct{}, len(s.Descriptors)+len(s.Addresses))
	for name := range s.Descriptors {
		seen[name] = struct{}{}
	}
	for name := range s.Addresses {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every registry file directly under dir. Subdirectories (such
// as a build-output export) are ignored.
func Load(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", dir, err)
	}

	snap := &Snapshot{
		Descriptors: make(map[string]domain.InterfaceDescriptor),
		Addresses:   make(map[string]domain.AddressMap),
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, descriptorSuffix) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if entity, ok := strings.CutSuffix(name, addressSuffix); ok {
			addresses := domain.AddressMap{}
			if err := json.Unmarshal(data, &addresses); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRegistry, path, err)
			}
			snap.Addresses[entity] = addresses
			continue
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: %s", ErrCorruptRegistry, path)
		}
		entity := strings.TrimSuffix(name, descriptorSuffix)
		snap.Descriptors[entity] = domain.InterfaceDescriptor(data)
	}
	return snap, nil
}
