package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vsa-launcher/internal/fileops"
	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/namegen"
	"vsa-launcher/internal/runstatus"
)

const (
	defaultAccessAttempts  = 10
	defaultCopyRetries     = 3
	defaultTempCopyRetries = 10
	defaultDiscoveryPeriod = 30 * time.Second

	targetExtension = ".png"
)

// Session is one active folder-monitoring context. Create it with
// NewSession, drive it with RunContext; cancel the context to stop. The
// session fully tears down its watches and waits for in-flight files
// before RunContext returns.
type Session struct {
	opts      Options
	logger    *logging.Logger
	callbacks Callbacks
	metadata  MetadataSource
	policy    *namegen.Policy

	counts counters

	mu       sync.Mutex
	state    string
	watching map[string]struct{}

	inflight sync.WaitGroup
}

func NewSession(opts Options, logger *logging.Logger, metadata MetadataSource, callbacks Callbacks) *Session {
	if logger == nil {
		panic("watcher.NewSession: logger must not be nil")
	}
	if metadata == nil {
		panic("watcher.NewSession: metadata source must not be nil")
	}
	if opts.AccessAttempts <= 0 {
		opts.AccessAttempts = defaultAccessAttempts
	}
	if opts.AccessInterval <= 0 {
		opts.AccessInterval = fileops.DefaultAccessInterval
	}
	if opts.CopyRetries <= 0 {
		opts.CopyRetries = defaultCopyRetries
	}
	if opts.CopyDelay <= 0 {
		opts.CopyDelay = fileops.DefaultAccessInterval
	}
	if opts.TempCopyRetries <= 0 {
		opts.TempCopyRetries = defaultTempCopyRetries
	}
	if opts.BucketDiscoveryPeriod <= 0 {
		opts.BucketDiscoveryPeriod = defaultDiscoveryPeriod
	}
	return &Session{
		opts:      opts,
		logger:    logger,
		callbacks: callbacks,
		metadata:  metadata,
		policy:    namegen.NewPolicy(),
		state:     runstatus.Stopped,
		watching:  map[string]struct{}{},
	}
}

// State returns the session's current lifecycle state string.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns the running detected/processed/error totals.
func (s *Session) Counters() Counters {
	return s.counts.snapshot()
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.status(state)
}

func (s *Session) status(message string) {
	if s.callbacks.OnStatus != nil {
		s.callbacks.OnStatus(message)
	}
}

func (s *Session) reportError(what string, err error) {
	s.counts.errors.Add(1)
	s.logger.Warn(what, logging.Field("error", err))
	s.status(fmt.Sprintf("%s: %v", what, err))
	if s.callbacks.OnError != nil {
		s.callbacks.OnError(err)
	}
}

// RunContext starts watching and blocks until the context ends. Teardown
// is synchronous: watches are closed and in-flight file pipelines drained
// before it returns, so a restart never races a prior session.
func (s *Session) RunContext(ctx context.Context) error {
	s.setState(runstatus.Starting)

	info, err := os.Stat(s.opts.SourceDir)
	if err != nil || !info.IsDir() {
		s.setState(runstatus.Stopped)
		return fmt.Errorf("cannot watch %s: %w", s.opts.SourceDir, err)
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		s.setState(runstatus.Stopped)
		return fmt.Errorf("failed to initialize fsnotify watcher: %w", err)
	}
	defer notifier.Close()

	if err := s.addWatch(notifier, s.opts.SourceDir); err != nil {
		s.setState(runstatus.Stopped)
		return err
	}

	bucketed := s.watchExistingBuckets(notifier)
	if bucketed {
		s.setState(runstatus.WatchingBucketed)
	} else {
		s.setState(runstatus.Watching)
	}
	s.logger.Info("watching for screenshots",
		logging.Field("source", s.opts.SourceDir),
		logging.Field("output", s.opts.OutputDir),
		logging.Field("date_bucketed", bucketed),
		logging.Field("metadata", s.opts.MetadataEnabled))

	discovery := time.NewTicker(s.opts.BucketDiscoveryPeriod)
	defer discovery.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("stopping watch session: context canceled")
			s.inflight.Wait()
			s.setState(runstatus.Stopped)
			return nil
		case event, ok := <-notifier.Events:
			if !ok {
				s.inflight.Wait()
				s.setState(runstatus.Stopped)
				return nil
			}
			s.handleEvent(ctx, notifier, event)
		case err, ok := <-notifier.Errors:
			if !ok {
				continue
			}
			if err != nil {
				s.reportError("watcher error", err)
			}
		case <-discovery.C:
			if s.watchExistingBuckets(notifier) {
				s.setState(runstatus.WatchingBucketed)
			}
		}
	}
}

func (s *Session) addWatch(notifier *fsnotify.Watcher, dir string) error {
	clean := filepath.Clean(dir)
	s.mu.Lock()
	_, exists := s.watching[clean]
	s.mu.Unlock()
	if exists {
		return nil
	}
	if err := notifier.Add(clean); err != nil {
		return fmt.Errorf("failed to watch %s: %w", clean, err)
	}
	s.mu.Lock()
	s.watching[clean] = struct{}{}
	s.mu.Unlock()
	s.logger.Debugf("watching directory: %s", clean)
	return nil
}

// watchExistingBuckets adds a sub-watch for every month-bucket folder
// directly under the source root. Reports whether any bucket is watched.
func (s *Session) watchExistingBuckets(notifier *fsnotify.Watcher) bool {
	entries, err := os.ReadDir(s.opts.SourceDir)
	if err != nil {
		return false
	}
	found := false
	for _, entry := range entries {
		if !entry.IsDir() || !namegen.IsMonthBucket(entry.Name()) {
			continue
		}
		found = true
		if err := s.addWatch(notifier, filepath.Join(s.opts.SourceDir, entry.Name())); err != nil {
			s.logger.Warn("failed to watch bucket folder", logging.Field("error", err))
		}
	}
	return found
}

func (s *Session) handleEvent(ctx context.Context, notifier *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&fsnotify.Create == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if namegen.IsMonthBucket(filepath.Base(event.Name)) {
			if err := s.addWatch(notifier, event.Name); err != nil {
				s.logger.Warn("failed to watch new bucket folder", logging.Field("error", err))
			} else {
				s.setState(runstatus.WatchingBucketed)
			}
		}
		return
	}

	if !strings.EqualFold(filepath.Ext(event.Name), targetExtension) {
		return
	}

	s.counts.detected.Add(1)
	s.status("Detected: " + filepath.Base(event.Name))

	s.inflight.Add(1)
	// Already-dispatched files run to completion even when the session is
	// torn down mid-wait; teardown stays synchronous through inflight.
	fileCtx := context.WithoutCancel(ctx)
	go func(path string) {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.reportError("panic processing "+filepath.Base(path), fmt.Errorf("%v", r))
			}
		}()
		s.processFile(fileCtx, path)
	}(event.Name)
}
