package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

var (
	// ErrMalformedArtifact is returned when an artifact cannot be parsed.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")
)

// readJSON reads path and decodes it into v. Comments and trailing commas
// are stripped first so hand-edited records still load.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedArtifact, path, err)
	}
	return nil
}

// present reports whether a raw field was set to something other than null.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
