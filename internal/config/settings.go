package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Settings is the shared on-disk configuration. The companion gallery app
// reads and writes the same file, so unknown fields are preserved-by-schema:
// every section it knows about is modeled here even when the launcher only
// consumes a subset.
type Settings struct {
	ScreenshotPath  string                  `json:"screenshot_path"`
	OutputPath      string                  `json:"output_path"`
	FolderStructure FolderStructureSettings `json:"folder_structure"`
	FileRenaming    FileRenamingSettings    `json:"file_renaming"`
	Metadata        MetadataSettings        `json:"metadata"`
	Compression     CompressionSettings     `json:"compression"`
	Launcher        LauncherSettings        `json:"launcher"`
	Debug           bool                    `json:"debug"`
}

type FolderStructureSettings struct {
	Enabled bool   `json:"enabled"`
	Type    string `json:"type"` // month, week, day
}

type FileRenamingSettings struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
}

type MetadataSettings struct {
	Enabled bool `json:"enabled"`

	// ExportSidecar also writes a "<name>.metadata.txt" next to each
	// archived file.
	ExportSidecar bool `json:"export_sidecar"`
}

// CompressionSettings is carried for settings-file compatibility with the
// gallery app; the launcher does not compress.
type CompressionSettings struct {
	AutoCompress     bool   `json:"auto_compress"`
	CompressionLevel string `json:"compression_level"`
}

type LauncherSettings struct {
	WatchingEnabled bool `json:"watching_enabled"`
	StartMinimized  bool `json:"start_minimized"`
}

func DefaultSettings() Settings {
	return Settings{
		FolderStructure: FolderStructureSettings{Enabled: true, Type: "month"},
		FileRenaming:    FileRenamingSettings{Enabled: true, Format: "yyyy-MM-dd-HHmm-seq"},
		Metadata:        MetadataSettings{Enabled: true},
		Compression:     CompressionSettings{AutoCompress: false, CompressionLevel: "medium"},
		Launcher:        LauncherSettings{WatchingEnabled: true},
	}
}

func SettingsPath() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "vsa-launcher", "settings.json"), nil
}

// LoadSettings reads the shared settings file. A missing file yields the
// defaults; a partial file is merged over them.
func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return DefaultSettings(), err
	}
	return LoadSettingsFrom(path)
}

func LoadSettingsFrom(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), err
	}
	return settings, nil
}

func SaveSettingsTo(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// MergeOptionsWithSettings lets CLI flags override the shared file without
// persisting the override.
func MergeOptionsWithSettings(cli Options, saved Settings) Settings {
	if strings.TrimSpace(cli.ScreenshotDir) != "" {
		saved.ScreenshotPath = strings.TrimSpace(cli.ScreenshotDir)
	}
	if strings.TrimSpace(cli.OutputDir) != "" {
		saved.OutputPath = strings.TrimSpace(cli.OutputDir)
	}
	if cli.NoMetadata {
		saved.Metadata.Enabled = false
	}
	if cli.Debug {
		saved.Debug = true
	}
	return saved
}