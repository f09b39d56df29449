package config

import (
	redisclient "github.com/vietddude/abiregistry/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	BaseDir  string         `yaml:"base_dir"`
	Registry RegistryConfig `yaml:"registry"`
	Roots    []RootConfig   `yaml:"roots"`
	Entities []EntityConfig `yaml:"entities"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Mirror   MirrorConfig   `yaml:"mirror"`
}

// RegistryConfig locates the consolidated output.
type RegistryConfig struct {
	Dir       string `yaml:"dir"`
	ExportDir string `yaml:"export_dir"` // destination of the build-output export
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig controls the prometheus textfile written after a run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // empty = disabled
}

// MirrorConfig configures optional publication of the registry.
type MirrorConfig struct {
	Redis redisclient.Config `yaml:"redis"`
}

// RootConfig declares one source root produced by a toolchain.
type RootConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // build-output, broadcast, deployments
	Path string `yaml:"path"`
}

// EntityConfig declares one tracked contract.
type EntityConfig struct {
	Name           string   `yaml:"name"`
	InterfacePaths []string `yaml:"interface_paths"`
	Roots          []string `yaml:"roots"` // empty = every declared root, in order
}
