package discovery

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vietddude/abiregistry/internal/core/domain"
)

// ChainIDMarker is the identity file a deployment tool leaves in each
// network directory.
const ChainIDMarker = ".chainId"

// ResolveChainID returns the chain id of a network directory. A non-empty
// marker file wins over the directory name; an unreadable marker is logged
// and ignored.
func ResolveChainID(dirName, dirPath string) domain.ChainID {
	markerPath := filepath.Join(dirPath, ChainIDMarker)
	data, err := os.ReadFile(markerPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to read chain id marker, using directory name",
				"path", markerPath, "network", dirName, "error", err)
		}
		return domain.ChainID(dirName)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return domain.ChainID(dirName)
	}
	return domain.ChainID(id)
}
