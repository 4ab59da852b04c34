// Package app assembles the launcher: log parser, watch session and the
// shared-settings reload loop, with status fan-out to the owning surface.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"vsa-launcher/internal/config"
	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/namegen"
	"vsa-launcher/internal/runctx"
	"vsa-launcher/internal/runstatus"
	"vsa-launcher/internal/vrclog"
	"vsa-launcher/internal/watcher"
)

// Callbacks deliver launcher activity to the status surface (terminal
// view or the companion GUI process). Nil members are skipped.
type Callbacks struct {
	OnStatusChange func(status string)
	OnFileDetected func(path string)
	OnWorldChanged func(worldName string, worldID string)
}

// LauncherApp owns one run of the archiver. The watch session is rebuilt
// whenever the companion GUI rewrites the shared settings file; the prior
// session is fully torn down first.
type LauncherApp struct {
	opts         config.Options
	logger       *logging.Logger
	hooks        Callbacks
	settingsPath string
	status       runtimeStatusState

	mu       sync.Mutex
	settings config.Settings
	session  *watcher.Session
	parser   *vrclog.Parser
}

// New wires a launcher run. settingsPath is watched for GUI edits; empty
// disables live reload.
func New(opts config.Options, settings config.Settings, settingsPath string, logger *logging.Logger, hooks Callbacks) *LauncherApp {
	if logger == nil {
		panic("app.New: logger must not be nil")
	}
	return &LauncherApp{
		opts:         opts,
		settings:     settings,
		settingsPath: settingsPath,
		logger:       logger,
		hooks:        hooks,
	}
}

func (a *LauncherApp) RunContext(ctx context.Context) error {
	settings := a.currentSettings()

	a.logger.Info("launcher starting",
		logging.Field("screenshot_dir", settings.ScreenshotPath),
		logging.Field("output_dir", settings.OutputPath),
		logging.Field("metadata", settings.Metadata.Enabled),
	)

	if err := validateSettings(settings); err != nil {
		return err
	}

	parser := vrclog.NewParser(vrclog.Options{LogDir: a.opts.LogDir}, a.logger, vrclog.Callbacks{
		OnWorldChanged: func(name string, id string) {
			a.notifyStatus("World: " + name)
			if a.hooks.OnWorldChanged != nil {
				a.hooks.OnWorldChanged(name, id)
			}
		},
	})
	a.mu.Lock()
	a.parser = parser
	a.mu.Unlock()

	if !parser.Available() {
		a.setRuntimeStatus(runstatus.Degraded)
	}

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		_ = parser.RunContext(ctx)
	}()
	defer background.Wait()

	reloads := make(chan config.Settings, 1)
	if a.settingsPath != "" {
		background.Add(1)
		go func() {
			defer background.Done()
			a.watchSettings(ctx, reloads)
		}()
	}

	for {
		session := watcher.NewSession(buildWatchOptions(settings), a.logger, parser, watcher.Callbacks{
			OnStatus: func(message string) {
				a.setRuntimeStatus(message)
			},
			OnFileDetected: func(path string) {
				if a.hooks.OnFileDetected != nil {
					a.hooks.OnFileDetected(path)
				}
			},
			OnError: func(err error) {
				a.logger.Debug("watch session error", logging.Field("error", err))
			},
		})
		a.mu.Lock()
		a.session = session
		a.mu.Unlock()

		sessionCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- session.RunContext(sessionCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			a.logger.Info("launcher stopped")
			return nil
		case err := <-done:
			cancel()
			if ctx.Err() != nil {
				a.logger.Info("launcher stopped")
				return nil
			}
			if err != nil {
				a.logger.Warn("watch session exited with error", logging.Field("error", err))
			}
			return err
		case updated := <-reloads:
			// Full synchronous teardown before the replacement session
			// starts; two sessions must never watch the same folder.
			cancel()
			<-done
			if err := validateSettings(updated); err != nil {
				a.logger.Warn("ignoring invalid settings update", logging.Field("error", err))
				continue
			}
			settings = updated
			a.mu.Lock()
			a.settings = updated
			a.mu.Unlock()
			a.logger.Info("settings changed, restarting watch session",
				logging.Field("screenshot_dir", settings.ScreenshotPath),
				logging.Field("output_dir", settings.OutputPath))
		}
	}
}

// watchSettings pushes a merged settings snapshot whenever the shared
// file is rewritten by the companion GUI.
func (a *LauncherApp) watchSettings(ctx context.Context, reloads chan<- config.Settings) {
	dir := filepath.Dir(a.settingsPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		a.logger.Debug("settings directory missing, live reload disabled", logging.Field("path", dir))
		return
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		a.logger.Warn("settings reload unavailable", logging.Field("error", err))
		return
	}
	defer notifier.Close()

	if err := notifier.Add(dir); err != nil {
		a.logger.Warn("settings reload unavailable", logging.Field("error", err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-notifier.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(a.settingsPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			loaded, err := config.LoadSettingsFrom(a.settingsPath)
			if err != nil {
				a.logger.Warn("failed to reload settings", logging.Field("error", err))
				continue
			}
			merged := config.MergeOptionsWithSettings(a.opts, loaded)
			if !runctx.SendOrDone(ctx, "settings reloader", a.logger, reloads, merged) {
				return
			}
		case err, ok := <-notifier.Errors:
			if !ok {
				return
			}
			if err != nil {
				a.logger.Debug("settings watcher error", logging.Field("error", err))
			}
		}
	}
}

// Counters returns the active session's totals, or zeros before start.
func (a *LauncherApp) Counters() watcher.Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return watcher.Counters{}
	}
	return a.session.Counters()
}

// SessionState returns the active session's lifecycle state string.
func (a *LauncherApp) SessionState() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return runstatus.Stopped
	}
	return a.session.State()
}

// WorldSnapshot returns the parser's current world context.
func (a *LauncherApp) WorldSnapshot() vrclog.WorldContext {
	a.mu.Lock()
	parser := a.parser
	a.mu.Unlock()
	if parser == nil {
		return vrclog.WorldContext{WorldName: vrclog.UnknownWorld}
	}
	return parser.Snapshot()
}

func (a *LauncherApp) currentSettings() config.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

func validateSettings(settings config.Settings) error {
	if strings.TrimSpace(settings.OutputPath) == "" {
		return ErrOutputDirRequired
	}
	info, err := os.Stat(settings.ScreenshotPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrScreenshotDirUnavailable, settings.ScreenshotPath)
	}
	return nil
}

func buildWatchOptions(settings config.Settings) watcher.Options {
	return watcher.Options{
		SourceDir: settings.ScreenshotPath,
		OutputDir: settings.OutputPath,
		Naming: namegen.Options{
			Bucketing:  settings.FolderStructure.Enabled,
			BucketType: settings.FolderStructure.Type,
			Renaming:   settings.FileRenaming.Enabled,
			Template:   settings.FileRenaming.Format,
		},
		MetadataEnabled: settings.Metadata.Enabled,
		ExportSidecar:   settings.Metadata.ExportSidecar,
	}
}

type runtimeStatusState struct {
	mu      sync.Mutex
	current string
}

func (s *runtimeStatusState) update(status string) (string, string, bool) {
	trimmed := strings.TrimSpace(status)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == trimmed {
		return s.current, trimmed, false
	}
	previous := s.current
	s.current = trimmed
	return previous, trimmed, true
}

func (a *LauncherApp) notifyStatus(status string) {
	if a.hooks.OnStatusChange == nil {
		return
	}
	a.hooks.OnStatusChange(status)
}

func (a *LauncherApp) setRuntimeStatus(status string) {
	previous, next, changed := a.status.update(status)
	if !changed {
		return
	}
	a.logger.Debug("runtime status transition",
		logging.Field("from", previous),
		logging.Field("to", next),
	)
	a.notifyStatus(status)
}
