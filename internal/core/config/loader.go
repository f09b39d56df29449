package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

const (
	defaultRegistryDir = "shared-abi/abis"
	defaultExportDir   = "shared-abi/abis/foundry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative base dir is anchored at the config file location
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if !filepath.IsAbs(cfg.BaseDir) {
		cfg.BaseDir = filepath.Join(filepath.Dir(path), cfg.BaseDir)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the layout of the monorepo this tool was written for: a
// Foundry package (staked-piku) and a Hardhat package (merkle-distribution).
func Default(baseDir string) *AppConfig {
	cfg := &AppConfig{
		BaseDir: baseDir,
		Roots: []RootConfig{
			{Name: "staked-piku-out", Kind: string(domain.SourceBuildOutput), Path: "staked-piku/out"},
			{Name: "staked-piku-broadcast", Kind: string(domain.SourceBroadcast), Path: "staked-piku/broadcast"},
			{Name: "staked-piku-deployments", Kind: string(domain.SourceDeployments), Path: "staked-piku/deployments"},
			{Name: "merkle-deployments", Kind: string(domain.SourceDeployments), Path: "merkle-distribution/deployments"},
		},
		Entities: []EntityConfig{
			{Name: "StakedPikuV2"},
			{Name: "PIKU"},
			{Name: "CumulativeMerkleDrop"},
		},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if cfg.Registry.Dir == "" {
		cfg.Registry.Dir = defaultRegistryDir
	}
	if cfg.Registry.ExportDir == "" {
		cfg.Registry.ExportDir = defaultExportDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Mirror.Redis.Prefix == "" {
		cfg.Mirror.Redis.Prefix = "abiregistry"
	}
}

// Validate checks names are unique and references resolve.
func (c *AppConfig) Validate() error {
	if len(c.Entities) == 0 {
		return fmt.Errorf("config: no entities declared")
	}
	roots := make(map[string]struct{}, len(c.Roots))
	for i, r := range c.Roots {
		if r.Name == "" {
			return fmt.Errorf("config: roots[%d]: name is required", i)
		}
		if _, dup := roots[r.Name]; dup {
			return fmt.Errorf("config: duplicate root %q", r.Name)
		}
		if !domain.SourceKind(r.Kind).Valid() {
			return fmt.Errorf("config: root %q: unknown kind %q", r.Name, r.Kind)
		}
		if r.Path == "" {
			return fmt.Errorf("config: root %q: path is required", r.Name)
		}
		roots[r.Name] = struct{}{}
	}
	names := make(map[string]struct{}, len(c.Entities))
	for i, e := range c.Entities {
		if e.Name == "" {
			return fmt.Errorf("config: entities[%d]: name is required", i)
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("config: duplicate entity %q", e.Name)
		}
		names[e.Name] = struct{}{}
		for _, ref := range e.Roots {
			if _, ok := roots[ref]; !ok {
				return fmt.Errorf("config: entity %q references unknown root %q", e.Name, ref)
			}
		}
	}
	return nil
}

// Entities resolves the declared entities into domain values with paths
// joined onto the base dir.
func (c *AppConfig) Entities() []domain.TrackedEntity {
	byName := make(map[string]domain.SourceRoot, len(c.Roots))
	all := make([]domain.SourceRoot, 0, len(c.Roots))
	for _, r := range c.Roots {
		root := domain.SourceRoot{Name: r.Name, Kind: domain.SourceKind(r.Kind), Path: c.Path(r.Path)}
		byName[r.Name] = root
		all = append(all, root)
	}

	entities := make([]domain.TrackedEntity, 0, len(c.Entities))
	for _, e := range c.Entities {
		te := domain.TrackedEntity{Name: e.Name}
		for _, p := range e.InterfacePaths {
			te.InterfacePaths = append(te.InterfacePaths, c.Path(p))
		}
		if len(e.Roots) == 0 {
			te.Roots = append(te.Roots, all...)
		} else {
			for _, ref := range e.Roots {
				te.Roots = append(te.Roots, byName[ref])
			}
		}
		entities = append(entities, te)
	}
	return entities
}

// Path resolves p against the base dir unless it is absolute.
func (c *AppConfig) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// RegistryDir is the resolved consolidated output directory.
func (c *AppConfig) RegistryDir() string {
	return c.Path(c.Registry.Dir)
}

// ExportDir is the resolved build-output export directory.
func (c *AppConfig) ExportDir() string {
	return c.Path(c.Registry.ExportDir)
}
