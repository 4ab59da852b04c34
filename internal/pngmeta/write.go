package pngmeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotPNG        = errors.New("not a PNG file")
	ErrEmptyMetadata = errors.New("no metadata to embed")
)

// Embed copies sourcePath to targetPath with the metadata map written as
// tEXt chunks directly after IHDR. Pixel data is never re-encoded. When the
// direct chunk write fails the permissive re-encode fallback is attempted
// before giving up.
func Embed(sourcePath string, targetPath string, metadata map[string]string) error {
	err := embedDirect(sourcePath, targetPath, metadata)
	if err == nil {
		return nil
	}
	if fallbackErr := embedReencoded(sourcePath, targetPath, metadata); fallbackErr == nil {
		return nil
	}
	return err
}

func embedDirect(sourcePath string, targetPath string, metadata map[string]string) error {
	if len(metadata) == 0 {
		return ErrEmptyMetadata
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	out, err := appendChunks(data, metadata)
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

// appendChunks injects the metadata chunks into raw PNG bytes at the fixed
// insertion point behind the signature and the standard 25-byte IHDR.
func appendChunks(data []byte, metadata map[string]string) ([]byte, error) {
	if !isPNG(data) {
		return nil, ErrNotPNG
	}
	insertAt := pngHeaderSize + ihdrChunkSize
	if len(data) < insertAt {
		return nil, fmt.Errorf("%w: truncated before IHDR", ErrNotPNG)
	}
	if string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("%w: first chunk is not IHDR", ErrNotPNG)
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

// buildMetadataChunks produces the authoritative JSON chunk first, then the
// single-value convenience chunks for tools that only read plain tEXt.
func buildMetadataChunks(metadata map[string]string) [][]byte {
	record := make(map[string]string, len(metadata)+1)
	for key, value := range metadata {
		record[key] = value
	}
	if _, ok := record[ProcessedKey]; !ok {
		record[ProcessedKey] = "true"
	}

	chunks := make([][]byte, 0, 8)
	chunks = append(chunks, buildTextChunk(MetadataKeyword, encodeJSON(record)))

	for _, key := range []string{"WorldName", "WorldID", "User", "CaptureTime", "Usernames"} {
		if value, ok := record[key]; ok {
			chunks = append(chunks, buildTextChunk(key, value))
		}
	}

	chunks = append(chunks, buildTextChunk("Description", describeRecord(record)))
	return chunks
}

func describeRecord(record map[string]string) string {
	var sb strings.Builder
	sb.WriteString("VRChat Snap Archive Info:\n")
	if world, ok := record["WorldName"]; ok {
		fmt.Fprintf(&sb, "World: %s\n", world)
	}
	if id, ok := record["WorldID"]; ok {
		fmt.Fprintf(&sb, "ID: %s\n", id)
	}
	if user, ok := record["User"]; ok {
		fmt.Fprintf(&sb, "User: %s\n", user)
	}
	if captured, ok := record["CaptureTime"]; ok {
		fmt.Fprintf(&sb, "Time: %s\n", captured)
	}
	return sb.String()
}

func encodeJSON(record map[string]string) string {
	// Deterministic key order keeps repeated embeds byte-identical.
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, key)
		buf.WriteByte(':')
		writeJSONString(&buf, record[key])
	}
	buf.WriteByte('}')
	return buf.String()
}

func writeJSONString(buf *bytes.Buffer, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		buf.WriteString(`""`)
		return
	}
	buf.Write(encoded)
}
