package pngmeta

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrNoMetadata = errors.New("file carries no metadata")

// ExportText writes the metadata of a PNG to a human-readable sidecar file
// and returns the path written. An empty exportPath defaults to
// "<image>.metadata.txt" next to the source.
func ExportText(pngPath string, exportPath string) (string, error) {
	metadata := Read(pngPath)
	if len(metadata) == 0 {
		return "", ErrNoMetadata
	}

	if exportPath == "" {
		exportPath = strings.TrimSuffix(pngPath, filepath.Ext(pngPath)) + ".metadata.txt"
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("=== VRC Snap Archive Metadata ===\n")
	fmt.Fprintf(&sb, "File: %s\n", filepath.Base(pngPath))
	fmt.Fprintf(&sb, "Exported: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	for _, key := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", key, metadata[key])
	}

	if err := os.WriteFile(exportPath, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return exportPath, nil
}
