package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

const (
	descriptorSuffix = ".json"
	addressSuffix    = ".address.json"
)

// ErrCorruptRegistry is returned when an existing registry file cannot be
// parsed. The file is left in place rather than replaced.
var ErrCorruptRegistry = errors.New("corrupt registry file")

// Store reads and writes registry files. It assumes a single writer.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the registry directory.
func (s *Store) Dir() string {
	return s.dir
}

// Prepare creates the registry directory.
func (s *Store) Prepare() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create registry dir %s: %w", s.dir, err)
	}
	return nil
}

// DescriptorPath is where the ABI of entity is stored.
func (s *Store) DescriptorPath(entity string) string {
	return filepath.Join(s.dir, entity+descriptorSuffix)
}

// AddressPath is where the address map of entity is stored.
func (s *Store) AddressPath(entity string) string {
	return filepath.Join(s.dir, entity+addressSuffix)
}

// ReadAddresses returns the persisted address map of entity, or an empty
// map when none exists.
func (s *Store) ReadAddresses(entity string) (domain.AddressMap, error) {
	path := s.AddressPath(entity)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.AddressMap{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	addresses := domain.AddressMap{}
	if err := json.Unmarshal(data, &addresses); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRegistry, path, err)
	}
	return addresses, nil
}

// ReadDescriptor returns the persisted ABI of entity, or nil when none
// exists.
func (s *Store) ReadDescriptor(entity string) (domain.InterfaceDescriptor, error) {
	path := s.DescriptorPath(entity)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return domain.InterfaceDescriptor(data), nil
}

// HasDescriptor reports whether an ABI file exists for entity.
func (s *Store) HasDescriptor(entity string) (bool, error) {
	_, err := os.Stat(s.DescriptorPath(entity))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// MergeInterface persists the descriptor captured for entity this run.
// Build output always replaces what is on disk; a descriptor recovered from
// a deployment record is only written when none exists yet. It reports
// whether the file changed.
func (s *Store) MergeInterface(
	entity string,
	descriptor domain.InterfaceDescriptor,
	source domain.DescriptorSource,
) (bool, error) {
	if len(descriptor) == 0 {
		return false, nil
	}
	if !source.Authoritative() {
		exists, err := s.HasDescriptor(entity)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}
	data, err := EncodeDescriptor(descriptor)
	if err != nil {
		return false, err
	}
	return writeIfChanged(s.DescriptorPath(entity), data)
}

// MergeAddresses folds incoming into the persisted map of entity. An empty
// incoming map leaves the file untouched. It reports whether the file
// changed.
func (s *Store) MergeAddresses(entity string, incoming domain.AddressMap) (bool, error) {
	if len(incoming) == 0 {
		return false, nil
	}
	existing, err := s.ReadAddresses(entity)
	if err != nil {
		return false, err
	}
	data, err := EncodeAddresses(MergeAddresses(existing, incoming))
	if err != nil {
		return false, err
	}
	return writeIfChanged(s.AddressPath(entity), data)
}

// writeIfChanged replaces path with data unless it already holds exactly
// those bytes.
func writeIfChanged(path string, data []byte) (bool, error) {
	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
