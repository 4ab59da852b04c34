package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vsa-launcher/internal/config"
	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/pngmeta"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 1, color.RGBA{B: 180, A: 255})
	// Stage outside the watched folder and rename in atomically so the
	// watcher never observes a partially written file.
	staged := filepath.Join(t.TempDir(), filepath.Base(path))
	file, err := os.Create(staged)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close png: %v", err)
	}
	if err := os.Rename(staged, path); err != nil {
		t.Fatalf("rename png into place: %v", err)
	}
}

func writeGameLog(t *testing.T, dir string) {
	t.Helper()
	lines := []string{
		"2025.03.19 11:00:00 Log        -  [Behaviour] Initialized PlayerAPI \"Photographer\" is local",
		"2025.03.19 11:05:00 Log        -  [Behaviour] Joining Sunset Pier wrld_abc123:",
		"2025.03.19 11:05:10 Log        -  [Behaviour] OnPlayerJoined Alice",
	}
	path := filepath.Join(dir, "output_log_2025-03-19.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write game log: %v", err)
	}
}

func testSettings(source string, output string) config.Settings {
	settings := config.DefaultSettings()
	settings.ScreenshotPath = source
	settings.OutputPath = output
	settings.FolderStructure.Enabled = false
	settings.FileRenaming.Enabled = false
	return settings
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestRunContextRejectsMissingScreenshotDir(t *testing.T) {
	settings := testSettings(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	launcher := New(config.Options{}, settings, "", logging.New(false), Callbacks{})

	err := launcher.RunContext(context.Background())
	if !errors.Is(err, ErrScreenshotDirUnavailable) {
		t.Fatalf("RunContext() error = %v, want ErrScreenshotDirUnavailable", err)
	}
}

func TestRunContextRequiresOutputPath(t *testing.T) {
	settings := testSettings(t.TempDir(), "")
	launcher := New(config.Options{}, settings, "", logging.New(false), Callbacks{})

	err := launcher.RunContext(context.Background())
	if !errors.Is(err, ErrOutputDirRequired) {
		t.Fatalf("RunContext() error = %v, want ErrOutputDirRequired", err)
	}
}

func TestLauncherArchivesEndToEnd(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	logDir := t.TempDir()
	writeGameLog(t, logDir)

	detected := make(chan string, 4)
	launcher := New(config.Options{LogDir: logDir}, testSettings(source, output), "",
		logging.New(false), Callbacks{
			OnFileDetected: func(path string) { detected <- path },
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- launcher.RunContext(ctx) }()

	if !waitFor(t, 2*time.Second, func() bool { return launcher.SessionState() != "Stopped" }) {
		t.Fatalf("session never started: state=%q", launcher.SessionState())
	}

	writePNG(t, filepath.Join(source, "shot.png"))

	archived := filepath.Join(output, "shot.png")
	if !waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(archived)
		return err == nil && launcher.Counters().Processed == 1
	}) {
		t.Fatalf("screenshot never archived: counters=%+v", launcher.Counters())
	}

	meta := pngmeta.Read(archived)
	if meta["WorldName"] != "Sunset Pier" || meta["WorldID"] != "wrld_abc123" {
		t.Fatalf("archived metadata = %#v", meta)
	}
	if meta["User"] != "Photographer" {
		t.Fatalf("photographer = %q", meta["User"])
	}
	if meta["VSACheck"] != "true" {
		t.Fatalf("processed marker missing: %#v", meta)
	}

	select {
	case <-detected:
	default:
		t.Fatalf("OnFileDetected never fired")
	}

	world := launcher.WorldSnapshot()
	if world.WorldName != "Sunset Pier" {
		t.Fatalf("world snapshot = %+v", world)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunContext() error = %v", err)
	}
}

func TestSettingsReloadRestartsSession(t *testing.T) {
	firstSource := t.TempDir()
	secondSource := t.TempDir()
	output := t.TempDir()

	settingsDir := t.TempDir()
	settingsPath := filepath.Join(settingsDir, "settings.json")
	initial := testSettings(firstSource, output)
	if err := config.SaveSettingsTo(settingsPath, initial); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	launcher := New(config.Options{}, initial, settingsPath, logging.New(false), Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- launcher.RunContext(ctx) }()

	if !waitFor(t, 2*time.Second, func() bool { return launcher.SessionState() != "Stopped" }) {
		t.Fatalf("session never started")
	}

	// The companion GUI points the launcher at a different folder.
	updated := testSettings(secondSource, output)
	if err := config.SaveSettingsTo(settingsPath, updated); err != nil {
		t.Fatalf("rewrite settings: %v", err)
	}

	// A file dropped into the new folder must be picked up once the
	// replacement session is watching it. Each poll drops a fresh file
	// since the restart moment is not observable from outside.
	if !waitFor(t, 10*time.Second, func() bool {
		name := "reload-" + time.Now().Format("150405.000") + ".png"
		writePNG(t, filepath.Join(secondSource, name))
		entries, err := os.ReadDir(output)
		return err == nil && len(entries) > 0
	}) {
		t.Fatalf("file in new source folder never archived")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunContext() error = %v", err)
	}
}
