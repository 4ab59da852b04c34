package pngmeta

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"strings"
)

// Reserved metadata keys.
const (
	ProcessedKey       = "VSACheck"
	legacyProcessedKey = "VSA"
	MetadataKeyword    = "VSA_Metadata"
)

const (
	pngHeaderSize = 8
	// Size of a standard IHDR chunk including its length, type and CRC
	// fields. Critical PNGs always carry a 13-byte IHDR data field.
	ihdrChunkSize = 25

	base64Prefix = "BASE64:"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// buildTextChunk assembles one complete tEXt chunk: 4-byte big-endian data
// length, the ASCII type tag, keyword + NUL + text, and a CRC-32 over the
// type tag and data field.
func buildTextChunk(keyword string, text string) []byte {
	stored := text
	if requiresBase64(keyword, text) {
		stored = base64Prefix + base64.StdEncoding.EncodeToString([]byte(text))
	}

	keywordBytes := latin1Encode(keyword)
	textBytes := latin1Encode(stored)

	data := make([]byte, 0, len(keywordBytes)+1+len(textBytes))
	data = append(data, keywordBytes...)
	data = append(data, 0)
	data = append(data, textBytes...)

	chunk := make([]byte, 0, 12+len(data))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, 't', 'E', 'X', 't')
	chunk = append(chunk, data...)

	crc := crc32.NewIEEE()
	_, _ = crc.Write(chunk[4:8])
	_, _ = crc.Write(data)
	chunk = binary.BigEndian.AppendUint32(chunk, crc.Sum32())
	return chunk
}

// requiresBase64 reports whether a chunk value must be stored as Base64 of
// its UTF-8 bytes. World and player names routinely carry characters a
// Latin-1 tEXt payload cannot hold, so those keys are always encoded.
func requiresBase64(keyword string, text string) bool {
	switch keyword {
	case "WorldName", "User", "Usernames", "Description":
		return true
	}
	for _, r := range text {
		if r > 0x7F {
			return true
		}
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

func decodeTextValue(text string) string {
	if !strings.HasPrefix(text, base64Prefix) {
		return text
	}
	decoded, err := base64.StdEncoding.DecodeString(text[len(base64Prefix):])
	if err != nil {
		return text
	}
	return string(decoded)
}

func latin1Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			out = append(out, '?')
			continue
		}
		out = append(out, byte(r))
	}
	return out
}

func latin1Decode(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

func isPNG(data []byte) bool {
	return len(data) >= len(pngSignature) && bytes.Equal(data[:len(pngSignature)], pngSignature)
}
