package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsFrom_MissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadSettingsFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if !settings.FolderStructure.Enabled || settings.FolderStructure.Type != "month" {
		t.Fatalf("unexpected defaults: %#v", settings.FolderStructure)
	}
	if settings.FileRenaming.Format != "yyyy-MM-dd-HHmm-seq" {
		t.Fatalf("unexpected default format: %q", settings.FileRenaming.Format)
	}
	if !settings.Metadata.Enabled {
		t.Fatalf("metadata should default to enabled")
	}
}

func TestLoadSettingsFrom_PartialFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	payload := `{"screenshot_path":"C:\\Pictures\\VRChat","folder_structure":{"enabled":true,"type":"week"}}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := LoadSettingsFrom(path)
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if settings.ScreenshotPath != `C:\Pictures\VRChat` {
		t.Fatalf("screenshot path = %q", settings.ScreenshotPath)
	}
	if settings.FolderStructure.Type != "week" {
		t.Fatalf("folder type = %q", settings.FolderStructure.Type)
	}
	// Untouched sections keep their defaults.
	if !settings.FileRenaming.Enabled || settings.FileRenaming.Format == "" {
		t.Fatalf("file renaming defaults lost: %#v", settings.FileRenaming)
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	settings := DefaultSettings()
	settings.OutputPath = "/archive"
	settings.FileRenaming.Format = "yyyyMMdd_HHmm_seq"

	if err := SaveSettingsTo(path, settings); err != nil {
		t.Fatalf("SaveSettingsTo() error = %v", err)
	}
	loaded, err := LoadSettingsFrom(path)
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if loaded.OutputPath != "/archive" || loaded.FileRenaming.Format != "yyyyMMdd_HHmm_seq" {
		t.Fatalf("round trip mismatch: %#v", loaded)
	}
}

func TestMergeOptionsWithSettings(t *testing.T) {
	saved := DefaultSettings()
	saved.ScreenshotPath = "/old"
	merged := MergeOptionsWithSettings(Options{ScreenshotDir: "/new", NoMetadata: true}, saved)
	if merged.ScreenshotPath != "/new" {
		t.Fatalf("screenshot path = %q", merged.ScreenshotPath)
	}
	if merged.Metadata.Enabled {
		t.Fatalf("metadata should be disabled by flag")
	}
	if merged.OutputPath != "" {
		t.Fatalf("output path should stay empty, got %q", merged.OutputPath)
	}
}
