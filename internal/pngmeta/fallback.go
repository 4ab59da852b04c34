package pngmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
)

// embedReencoded is the permissive fallback: decode the pixels with the
// standard codec, encode a fresh well-formed PNG, then inject the same
// tEXt chunks behind the new stream's IHDR. Slower and lossy for ancillary
// chunks the source carried, but tolerant of inputs the direct path
// rejects (oversized IHDR, leading junk the decoder skips).
func embedReencoded(sourcePath string, targetPath string, metadata map[string]string) error {
	if len(metadata) == 0 {
		return ErrEmptyMetadata
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	img, err := png.Decode(source)
	closeErr := source.Close()
	if err != nil {
		return fmt.Errorf("decode source: %w", err)
	}
	if closeErr != nil {
		return closeErr
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return fmt.Errorf("re-encode: %w", err)
	}

	out, err := injectAfterIHDR(encoded.Bytes(), metadata)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(targetPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create target directory: %w", err)
		}
	}
	return os.WriteFile(targetPath, out, 0o644)
}

// injectAfterIHDR locates the real end of the first chunk instead of
// assuming the fixed 25-byte IHDR, since this path exists precisely for
// streams the fixed-offset writer cannot handle.
func injectAfterIHDR(data []byte, metadata map[string]string) ([]byte, error) {
	if !isPNG(data) {
		return nil, ErrNotPNG
	}
	if len(data) < pngHeaderSize+8 {
		return nil, fmt.Errorf("%w: truncated chunk stream", ErrNotPNG)
	}
	ihdrLen := int(binary.BigEndian.Uint32(data[pngHeaderSize : pngHeaderSize+4]))
	insertAt := pngHeaderSize + 12 + ihdrLen
	if insertAt > len(data) {
		return nil, fmt.Errorf("%w: IHDR overruns stream", ErrNotPNG)
	}

	chunks := buildMetadataChunks(metadata)
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}

	out := make([]byte, 0, len(data)+total)
	out = append(out, data[:insertAt]...)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	out = append(out, data[insertAt:]...)
	return out, nil
}
