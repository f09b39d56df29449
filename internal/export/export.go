// Package export copies the interface descriptors out of a flat build
// output directory into a standalone ABI directory.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vietddude/abiregistry/internal/core/domain"
	"github.com/vietddude/abiregistry/internal/extract"
	"github.com/vietddude/abiregistry/internal/registry"
)

// ExportResult summarizes one export pass.
type ExportResult struct {
	Exported  []string
	Unchanged []string
	Skipped   []string
	Errors    []domain.ArtifactError
}

// ExportBuildOutput writes the abi of every build output file found below
// outDir to destDir/<Name>.json. Files directly inside outDir are not
// contract artifacts and are ignored, as are files without an abi. Only a
// missing outDir or an unwritable destDir fail the whole export.
func ExportBuildOutput(outDir, destDir string) (ExportResult, error) {
	var result ExportResult

	store := registry.NewStore(destDir)
	if err := store.Prepare(); err != nil {
		return result, err
	}

	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == outDir {
				return err
			}
			result.Errors = append(result.Errors, domain.ArtifactError{Path: path, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" || filepath.Dir(path) == filepath.Clean(outDir) {
			return nil
		}

		name := strings.TrimSuffix(d.Name(), ".json")
		ext, err := extract.Extract(domain.Location{Kind: domain.ArtifactBuildOutput, Path: path}, name, false)
		if errors.Is(err, extract.ErrMissingField) {
			result.Skipped = append(result.Skipped, path)
			return nil
		}
		if err != nil {
			result.Errors = append(result.Errors, domain.ArtifactError{Entity: name, Path: path, Reason: err.Error()})
			slog.Error("Skipping build output", "path", path, "error", err)
			return nil
		}

		written, err := store.MergeInterface(name, ext.Descriptor, ext.Source)
		if err != nil {
			return err
		}
		if written {
			result.Exported = append(result.Exported, name)
			slog.Info("Exported ABI", "contract", name, "from", path)
		} else {
			result.Unchanged = append(result.Unchanged, name)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("exporting %s: %w", outDir, err)
	}
	return result, nil
}
