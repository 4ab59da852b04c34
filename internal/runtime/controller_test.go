package runtime

import (
	"context"
	"testing"
	"time"

	"vsa-launcher/internal/config"
	"vsa-launcher/internal/logging"
)

func TestControllerStartStopLifecycle(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ScreenshotPath = t.TempDir()
	settings.OutputPath = t.TempDir()
	logger := logging.New(false)

	ctrl := NewController(context.Background())
	if ctrl.IsRunning() {
		t.Fatalf("IsRunning() = true before start")
	}
	if got := ctrl.Counters(); got.Detected != 0 || got.Processed != 0 {
		t.Fatalf("counters before start = %+v, want zeros", got)
	}

	exited := make(chan error, 1)
	if err := ctrl.Start(config.Options{}, settings, logger, StartHooks{
		OnExit: func(err error) { exited <- err },
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !ctrl.IsRunning() {
		t.Fatalf("IsRunning() = false after start")
	}
	if err := ctrl.Start(config.Options{}, settings, logger, StartHooks{}); err == nil {
		t.Fatalf("second Start() expected error while running")
	}

	if !ctrl.StopAndWait(5 * time.Second) {
		t.Fatalf("StopAndWait() timed out")
	}
	if ctrl.IsRunning() {
		t.Fatalf("IsRunning() = true after stop")
	}

	select {
	case err := <-exited:
		if err != nil {
			t.Fatalf("service exited with error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("OnExit never fired")
	}
}

func TestControllerStartRejectsInvalidSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ScreenshotPath = t.TempDir()
	settings.OutputPath = ""

	ctrl := NewController(context.Background())

	exited := make(chan error, 1)
	if err := ctrl.Start(config.Options{}, settings, logging.New(false), StartHooks{
		OnExit: func(err error) { exited <- err },
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case err := <-exited:
		if err == nil {
			t.Fatalf("service accepted empty output path")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("service never exited on invalid settings")
	}
	if ctrl.IsRunning() {
		t.Fatalf("IsRunning() = true after failed run")
	}
}
