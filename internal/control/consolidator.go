package control

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/abiregistry/internal/core/domain"
	"github.com/vietddude/abiregistry/internal/discovery"
	"github.com/vietddude/abiregistry/internal/extract"
	"github.com/vietddude/abiregistry/internal/metrics"
	"github.com/vietddude/abiregistry/internal/registry"
)

// Consolidator runs one pass over every tracked entity and folds the
// artifacts found in its source roots into the registry.
type Consolidator struct {
	cfg       Config
	store     *registry.Store
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// Config holds the consolidation inputs.
type Config struct {
	RegistryDir string
	Entities    []domain.TrackedEntity
}

// Option customizes a Consolidator.
type Option func(*Consolidator)

// WithPublisher mirrors every consolidated entity through p.
func WithPublisher(p Publisher) Option {
	return func(c *Consolidator) {
		c.publisher = p
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consolidator) {
		c.log = l
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Consolidator) {
		c.now = now
	}
}

// NewConsolidator creates a Consolidator writing into cfg.RegistryDir.
func NewConsolidator(cfg Config, opts ...Option) *Consolidator {
	c := &Consolidator{
		cfg:   cfg,
		store: registry.NewStore(cfg.RegistryDir),
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consolidates every entity in configuration order. Only a failure to
// prepare the registry directory or a cancelled context returns an error;
// artifact and per-entity write failures are collected in the result.
func (c *Consolidator) Run(ctx context.Context) (*domain.Result, error) {
	result := &domain.Result{
		RunID:     uuid.NewString(),
		StartedAt: c.now(),
	}
	log := c.log.With("run", result.RunID)

	if err := c.store.Prepare(); err != nil {
		return nil, err
	}
	log.Info("Starting consolidation", "entities", len(c.cfg.Entities), "registry", c.store.Dir())

	for _, entity := range c.cfg.Entities {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		report, errs := c.consolidate(ctx, log.With("entity", entity.Name), entity)

		result.Entities = append(result.Entities, report)
		result.Errors = append(result.Errors, errs...)
		if report.DescriptorWritten {
			result.DescriptorsWritten++
		}
		if report.AddressesWritten {
			result.AddressMapsWritten++
		}
	}

	result.FinishedAt = c.now()
	metrics.LastRunTimestamp.Set(float64(result.FinishedAt.Unix()))
	metrics.RunDuration.Set(result.FinishedAt.Sub(result.StartedAt).Seconds())

	if c.publisher != nil {
		if err := c.publisher.MarkRun(ctx, result.RunID, result.FinishedAt); err != nil {
			log.Warn("Failed to publish run marker", "error", err)
		}
	}

	log.Info("Consolidation finished",
		"descriptors_written", result.DescriptorsWritten,
		"address_maps_written", result.AddressMapsWritten,
		"errors", len(result.Errors),
	)
	return result, nil
}

// accumulator is the fold state for one entity.
type accumulator struct {
	descriptor domain.InterfaceDescriptor
	source     domain.DescriptorSource
	origin     string
	addresses  domain.AddressMap
}

func (a *accumulator) apply(loc domain.Location, ext domain.Extraction) {
	if a.descriptor == nil && len(ext.Descriptor) > 0 {
		a.descriptor = ext.Descriptor
		a.source = ext.Source
		a.origin = loc.Path
	}
	for chain, addr := range ext.Addresses {
		a.addresses[chain] = addr
	}
}

func (c *Consolidator) consolidate(
	ctx context.Context,
	log *slog.Logger,
	entity domain.TrackedEntity,
) (domain.EntityReport, []domain.ArtifactError) {
	report := domain.EntityReport{Name: entity.Name}
	var errs []domain.ArtifactError
	fail := func(path string, reason string) {
		errs = append(errs, domain.ArtifactError{Entity: entity.Name, Path: path, Reason: reason})
		metrics.ArtifactErrors.WithLabelValues(entity.Name).Inc()
		log.Error("Skipping artifact", "path", path, "error", reason)
	}

	acc := &accumulator{addresses: domain.AddressMap{}}
	for loc, err := range artifacts(entity) {
		if err != nil {
			var ae domain.ArtifactError
			if errors.As(err, &ae) {
				fail(ae.Path, ae.Reason)
			} else {
				fail("", err.Error())
			}
			continue
		}
		// Only the first readable build output matters
		if loc.Kind == domain.ArtifactBuildOutput && acc.descriptor != nil {
			log.Debug("Ignoring additional build output", "path", loc.Path)
			continue
		}

		ext, err := extract.Extract(loc, entity.Name, acc.descriptor != nil)
		if err != nil {
			fail(loc.Path, err.Error())
			continue
		}
		report.Artifacts++
		metrics.ArtifactsProcessed.WithLabelValues(entity.Name, string(loc.Kind)).Inc()
		for chain, addr := range ext.Addresses {
			log.Debug("Found address", "chain", chain, "network", loc.Network, "address", addr, "path", loc.Path)
		}
		acc.apply(loc, ext)
	}

	report.Addresses = len(acc.addresses)
	report.DescriptorSource = acc.source
	metrics.AddressesDiscovered.WithLabelValues(entity.Name).Set(float64(len(acc.addresses)))

	if acc.descriptor != nil {
		written, err := c.store.MergeInterface(entity.Name, acc.descriptor, acc.source)
		if err != nil {
			fail(c.store.DescriptorPath(entity.Name), err.Error())
		} else if written {
			report.DescriptorWritten = true
			metrics.RegistryWrites.WithLabelValues(entity.Name, metrics.FileDescriptor).Inc()
		}
		log.Info("Interface descriptor", "source", acc.source, "from", acc.origin, "written", written)
	} else {
		log.Info("No interface descriptor found")
	}

	if len(acc.addresses) == 0 {
		log.Info("No addresses found")
	} else {
		written, err := c.store.MergeAddresses(entity.Name, acc.addresses)
		if err != nil {
			fail(c.store.AddressPath(entity.Name), err.Error())
		} else if written {
			report.AddressesWritten = true
			metrics.RegistryWrites.WithLabelValues(entity.Name, metrics.FileAddresses).Inc()
		}
		log.Info("Addresses", "networks", len(acc.addresses), "written", written)
	}

	if c.publisher != nil {
		if err := c.publish(ctx, entity.Name, acc.addresses); err != nil {
			fail("mirror", err.Error())
		}
	}
	return report, errs
}

// publish mirrors the persisted registry state of entity.
func (c *Consolidator) publish(ctx context.Context, entity string, addresses domain.AddressMap) error {
	descriptor, err := c.store.ReadDescriptor(entity)
	if err != nil {
		return err
	}
	if descriptor != nil {
		if err := c.publisher.PublishDescriptor(ctx, entity, descriptor); err != nil {
			return err
		}
	}
	return c.publisher.PublishAddresses(ctx, entity, addresses)
}

// artifacts yields the candidate artifacts of entity in capture order:
// explicit interface files, then build-output roots, then deployment trees
// in configured order.
func artifacts(entity domain.TrackedEntity) iter.Seq2[domain.Location, error] {
	return func(yield func(domain.Location, error) bool) {
		sources := []iter.Seq2[domain.Location, error]{discovery.InterfaceFiles(entity.InterfacePaths)}
		for _, root := range entity.Roots {
			if root.Kind == domain.SourceBuildOutput {
				sources = append(sources, discovery.Locate(root, entity.Name))
			}
		}
		for _, root := range entity.Roots {
			if root.Kind != domain.SourceBuildOutput {
				sources = append(sources, discovery.Locate(root, entity.Name))
			}
		}

		for _, seq := range sources {
			for loc, err := range seq {
				if !yield(loc, err) {
					return
				}
			}
		}
	}
}
