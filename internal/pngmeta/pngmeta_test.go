package pngmeta

import (
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, dir string, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close png: %v", err)
	}
	return path
}

func TestEmbedReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := writeTestPNG(t, dir, "shot.png")
	target := filepath.Join(dir, "out", "shot.png")

	metadata := map[string]string{
		"WorldName":   "夕暮れの桟橋 Sunset Pier",
		"WorldID":     "wrld_abc123",
		"User":        "Pía",
		"Usernames":   "Alice.ボブ",
		"CaptureTime": "2026-05-17 14:32:00",
	}
	if err := Embed(source, target, metadata); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	got := Read(target)
	for key, want := range metadata {
		if got[key] != want {
			t.Fatalf("Read()[%q] = %q, want %q", key, got[key], want)
		}
	}
	if got[ProcessedKey] != "true" {
		t.Fatalf("processed marker missing: %#v", got)
	}
}

func TestEmbedProducesValidChunks(t *testing.T) {
	dir := t.TempDir()
	source := writeTestPNG(t, dir, "shot.png")
	target := filepath.Join(dir, "tagged.png")

	if err := Embed(source, target, map[string]string{"WorldName": "Test"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if !isPNG(data) {
		t.Fatalf("output does not start with the PNG signature")
	}

	// Recompute the CRC of every tEXt chunk.
	position := pngHeaderSize
	textChunks := 0
	for position+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[position : position+4]))
		if position+12+length > len(data) {
			t.Fatalf("truncated chunk at offset %d", position)
		}
		if string(data[position+4:position+8]) == "tEXt" {
			textChunks++
			stored := binary.BigEndian.Uint32(data[position+8+length : position+12+length])
			computed := crc32.ChecksumIEEE(data[position+4 : position+8+length])
			if stored != computed {
				t.Fatalf("chunk CRC mismatch at offset %d: stored %08x computed %08x", position, stored, computed)
			}
		}
		position += 12 + length
	}
	if textChunks == 0 {
		t.Fatalf("no tEXt chunks written")
	}

	// The stream must still decode after injection.
	file, err := os.Open(target)
	if err != nil {
		t.Fatalf("open target: %v", err)
	}
	defer file.Close()
	if _, err := png.Decode(file); err != nil {
		t.Fatalf("output no longer decodes: %v", err)
	}
}

func TestReadForeignInputSoftFails(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(junk, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if got := Read(junk); len(got) != 0 {
		t.Fatalf("Read(junk) = %#v, want empty", got)
	}
	if got := Read(filepath.Join(dir, "missing.png")); len(got) != 0 {
		t.Fatalf("Read(missing) = %#v, want empty", got)
	}
	if got := Read(filepath.Join(dir, "photo.jpg")); len(got) != 0 {
		t.Fatalf("Read(wrong extension) = %#v, want empty", got)
	}
}

func TestIsProcessed(t *testing.T) {
	dir := t.TempDir()
	source := writeTestPNG(t, dir, "shot.png")
	if IsProcessed(source) {
		t.Fatalf("fresh file reported as processed")
	}

	target := filepath.Join(dir, "done.png")
	if err := Embed(source, target, map[string]string{"WorldName": "X"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !IsProcessed(target) {
		t.Fatalf("embedded file not reported as processed")
	}

	// Legacy marker variant, injected by hand so only the short key exists.
	data, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	insertAt := pngHeaderSize + ihdrChunkSize
	chunk := buildTextChunk(legacyProcessedKey, "true")
	out := append(append(append([]byte{}, data[:insertAt]...), chunk...), data[insertAt:]...)
	legacy := filepath.Join(dir, "legacy.png")
	if err := os.WriteFile(legacy, out, 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	if !IsProcessed(legacy) {
		t.Fatalf("legacy marker not accepted")
	}
}

func TestEmbedRejectsNonPNGThenFallbackAlsoFails(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.png")
	if err := os.WriteFile(junk, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if err := Embed(junk, filepath.Join(dir, "out.png"), map[string]string{"k": "v"}); err == nil {
		t.Fatalf("Embed() on junk expected error")
	}
}

func TestReencodedFallbackReadable(t *testing.T) {
	dir := t.TempDir()
	source := writeTestPNG(t, dir, "shot.png")
	target := filepath.Join(dir, "fallback.png")

	metadata := map[string]string{"WorldName": "Fallback World", "WorldID": "wrld_f"}
	if err := embedReencoded(source, target, metadata); err != nil {
		t.Fatalf("embedReencoded() error = %v", err)
	}

	got := Read(target)
	if got["WorldName"] != "Fallback World" || got["WorldID"] != "wrld_f" {
		t.Fatalf("fallback metadata not readable: %#v", got)
	}
	if got[ProcessedKey] != "true" {
		t.Fatalf("fallback missing processed marker")
	}
}

func TestExportText(t *testing.T) {
	dir := t.TempDir()
	source := writeTestPNG(t, dir, "shot.png")
	target := filepath.Join(dir, "tagged.png")
	if err := Embed(source, target, map[string]string{"WorldName": "Pier"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	path, err := ExportText(target, "")
	if err != nil {
		t.Fatalf("ExportText() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !containsAll(string(data), "WorldName: Pier", ProcessedKey+": true") {
		t.Fatalf("export missing fields:\n%s", data)
	}

	if _, err := ExportText(source, ""); err == nil {
		t.Fatalf("ExportText() on bare file expected error")
	}
}

func containsAll(haystack string, needles ...string) bool {
	for _, needle := range needles {
		found := false
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	source := writeTestPNG(t, dir, "shot.png")

	expected := map[string]string{
		"WorldName":   "Pier",
		"WorldID":     "wrld_abc",
		"CaptureTime": "2026-05-17 14:32:00",
	}
	target := filepath.Join(dir, "out.png")
	if err := Embed(source, target, expected); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !Verify(target, expected) {
		t.Fatalf("Verify() = false for freshly embedded file")
	}

	// A bare PNG has no marker and no keys.
	if Verify(source, expected) {
		t.Fatalf("Verify() = true for file without metadata")
	}

	// Essential key present in the expectation but absent on disk fails.
	partial := filepath.Join(dir, "partial.png")
	if err := Embed(source, partial, map[string]string{"WorldName": "Pier"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if Verify(partial, expected) {
		t.Fatalf("Verify() = true despite missing WorldID")
	}
}
