package pngmeta

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Read extracts all text metadata from a PNG file. Malformed or foreign
// input yields an empty map, never an error: the read path is used as a
// cheap predicate on arbitrary files.
func Read(path string) map[string]string {
	metadata := map[string]string{}
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return metadata
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return metadata
	}
	if !isPNG(data) {
		return metadata
	}
	return extractTextChunks(data)
}

// extractTextChunks walks the chunk stream from the end of the signature,
// collecting every tEXt chunk. The VSA_Metadata chunk is decoded as JSON
// and merged; other keywords are stored verbatim. A truncated or corrupt
// stream terminates the scan with whatever was collected so far.
func extractTextChunks(data []byte) map[string]string {
	result := map[string]string{}
	position := pngHeaderSize

	for position+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[position : position+4]))
		if length < 0 || position+12+length > len(data) {
			break
		}
		chunkType := string(data[position+4 : position+8])

		if chunkType == "tEXt" {
			payload := data[position+8 : position+8+length]
			if keyword, text, ok := splitTextPayload(payload); ok {
				text = decodeTextValue(text)
				if keyword == MetadataKeyword {
					mergeJSONMetadata(result, text)
				} else {
					result[keyword] = text
				}
			}
		}

		position += 12 + length
	}
	return result
}

func splitTextPayload(payload []byte) (string, string, bool) {
	for i, b := range payload {
		if b == 0 {
			if i == 0 {
				return "", "", false
			}
			return latin1Decode(payload[:i]), latin1Decode(payload[i+1:]), true
		}
	}
	return "", "", false
}

func mergeJSONMetadata(result map[string]string, text string) {
	var record map[string]string
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return
	}
	for key, value := range record {
		result[key] = value
	}
}

// IsProcessed reports whether a file already carries the processed marker
// written by this pipeline. The legacy short marker key is accepted too.
func IsProcessed(path string) bool {
	metadata := Read(path)
	if metadata[ProcessedKey] == "true" {
		return true
	}
	return metadata[legacyProcessedKey] == "true"
}

// essentialKeys must survive an embed whenever the source record carried
// them; their loss means the write was truncated or mangled.
var essentialKeys = []string{"WorldName", "WorldID", "CaptureTime"}

// Verify reads back an embedded file and confirms the processed marker
// plus every essential key present in expected made it to disk.
func Verify(path string, expected map[string]string) bool {
	actual := Read(path)
	if len(actual) == 0 {
		return false
	}
	if actual[ProcessedKey] != "true" && actual[legacyProcessedKey] != "true" {
		return false
	}
	for _, key := range essentialKeys {
		if _, want := expected[key]; !want {
			continue
		}
		if _, ok := actual[key]; !ok {
			return false
		}
	}
	return true
}
