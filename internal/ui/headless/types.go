package headless

import (
	"context"
	"sync"

	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/runtime"
	"vsa-launcher/internal/watcher"
)

const logPanelLimit = 500

type logMsg string
type statusMsg string
type fileDetectedMsg string
type tickMsg struct{}
type quitNowMsg struct{}

type worldMsg struct {
	name string
	id   string
}

type runDoneMsg struct {
	err error
}

type statusKind int

const (
	statusIdle statusKind = iota
	statusWatching
	statusStopping
	statusError
)

type headlessModel struct {
	buildVersion string
	runner       *runtime.Controller
	logger       *logging.Logger
	unsubscribe  func()
	rootCancel   context.CancelFunc

	logCh    chan string
	statusCh chan string
	fileCh   chan string
	worldCh  chan worldMsg
	doneCh   chan error

	running  bool
	quitting bool
	status   string
	kind     statusKind

	worldName string
	worldID   string
	lastFile  string
	counters  watcher.Counters

	logLines []string
	width    int
	height   int

	cleanupOnce sync.Once
}
