// Package discovery finds candidate artifacts inside the source roots of a
// tracked entity. It only inspects directory structure; file contents are
// left to the extract package.
package discovery

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// BroadcastLog is the file a broadcast run leaves per network.
const BroadcastLog = "run-latest.json"

// Locate yields the candidate artifacts for entity under root in lexical
// order. Missing roots and files yield nothing. A directory that exists but
// cannot be listed is yielded as an ArtifactError.
func Locate(root domain.SourceRoot, entity string) iter.Seq2[domain.Location, error] {
	return func(yield func(domain.Location, error) bool) {
		switch root.Kind {
		case domain.SourceBuildOutput:
			path := BuildOutputPath(root.Path, entity)
			if fileExists(path) {
				yield(domain.Location{Kind: domain.ArtifactBuildOutput, Path: path, Root: root.Path}, nil)
			}
		case domain.SourceDeployments:
			locateNetworks(root.Path, root.Path, entity+".json", domain.ArtifactDeployRecord, yield)
		case domain.SourceBroadcast:
			scripts, err := listDirs(root.Path)
			if err != nil {
				yield(domain.Location{}, listError(root.Path, err))
				return
			}
			for _, script := range scripts {
				if !locateNetworks(root.Path, script.path, BroadcastLog, domain.ArtifactBroadcastLog, yield) {
					return
				}
			}
		}
	}
}

// InterfaceFiles yields explicitly configured build-output files that exist.
func InterfaceFiles(paths []string) iter.Seq2[domain.Location, error] {
	return func(yield func(domain.Location, error) bool) {
		for _, path := range paths {
			if !fileExists(path) {
				continue
			}
			loc := domain.Location{Kind: domain.ArtifactBuildOutput, Path: path, Root: filepath.Dir(path)}
			if !yield(loc, nil) {
				return
			}
		}
	}
}

// BuildOutputPath follows the compiler convention <out>/<Name>.sol/<Name>.json.
func BuildOutputPath(outDir, entity string) string {
	return filepath.Join(outDir, entity+".sol", entity+".json")
}

// locateNetworks walks the network directories of dir and yields
// <network>/<file> where present. It returns false when the consumer stopped.
func locateNetworks(
	root, dir, file string,
	kind domain.ArtifactKind,
	yield func(domain.Location, error) bool,
) bool {
	networks, err := listDirs(dir)
	if err != nil {
		return yield(domain.Location{}, listError(dir, err))
	}
	for _, network := range networks {
		path := filepath.Join(network.path, file)
		if !fileExists(path) {
			continue
		}
		loc := domain.Location{
			Kind:    kind,
			Path:    path,
			Root:    root,
			Network: network.name,
			ChainID: ResolveChainID(network.name, network.path),
		}
		if !yield(loc, nil) {
			return false
		}
	}
	return true
}

type dirEntry struct {
	name string
	path string
}

// listDirs returns the subdirectories of dir sorted by name. A missing dir
// is not an error.
func listDirs(dir string) ([]dirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	dirs := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !isDir(path, e) {
			continue
		}
		dirs = append(dirs, dirEntry{name: e.Name(), path: path})
	}
	return dirs, nil
}

func isDir(path string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	// Follow symlinks the way a plain stat would
	if e.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func listError(dir string, err error) domain.ArtifactError {
	return domain.ArtifactError{Path: dir, Reason: "cannot list directory: " + err.Error()}
}
