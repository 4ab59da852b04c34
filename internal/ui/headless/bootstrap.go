// Package headless is the terminal status view: a live panel of the
// watch session's state, world context and activity feed, for running
// the launcher without the companion GUI.
package headless

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"vsa-launcher/internal/config"
	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/runtime"
	"vsa-launcher/internal/vrclog"
)

const (
	logChannelBufferSize    = 512
	statusChannelBufferSize = 16
	fileChannelBufferSize   = 16
	worldChannelBufferSize  = 4
	updateTickInterval      = 250 * time.Millisecond
	runErrorExitCode        = 1
)

func Run(rootCtx context.Context, buildVersion string, opts config.Options) {
	settings, loadErr := config.LoadSettings()
	if loadErr != nil {
		settings = config.DefaultSettings()
	}
	settings = config.MergeOptionsWithSettings(opts, settings)

	logger := logging.New(false)
	logger.SetDebugEnabled(opts.Debug || settings.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	logger.SetTerminalOutputEnabled(false)
	logger.Info("starting launcher status view", logging.Field("version", buildVersion))

	m := newHeadlessModel(rootCtx, buildVersion, opts, settings, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	result, runErr := program.Run()
	if model, ok := result.(*headlessModel); ok && model != nil {
		model.cleanup()
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(runErrorExitCode)
	}
}

func newHeadlessModel(rootCtx context.Context, buildVersion string, opts config.Options, settings config.Settings, logger *logging.Logger) *headlessModel {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	runCtx, runCancel := context.WithCancel(rootCtx)

	m := &headlessModel{
		buildVersion: buildVersion,
		runner:       runtime.NewController(runCtx),
		logger:       logger,
		rootCancel:   runCancel,
		logCh:        make(chan string, logChannelBufferSize),
		statusCh:     make(chan string, statusChannelBufferSize),
		fileCh:       make(chan string, fileChannelBufferSize),
		worldCh:      make(chan worldMsg, worldChannelBufferSize),
		doneCh:       make(chan error, 1),
		status:       "Starting",
		kind:         statusIdle,
		worldName:    vrclog.UnknownWorld,
	}

	m.unsubscribe = logger.Subscribe(func(event logging.Event) {
		line := logging.FormatEventANSI(event)
		select {
		case m.logCh <- line:
		default:
			// Drop the oldest buffered line rather than block the logger.
			select {
			case <-m.logCh:
			default:
			}
			m.logCh <- line
		}
	})

	if err := m.runner.Start(opts, settings, logger, runtime.StartHooks{
		OnStatus: func(status string) {
			select {
			case m.statusCh <- status:
			default:
			}
		},
		OnFileDetected: func(path string) {
			select {
			case m.fileCh <- path:
			default:
			}
		},
		OnWorldChanged: func(name string, id string) {
			select {
			case m.worldCh <- worldMsg{name: name, id: id}:
			default:
			}
		},
		OnExit: func(err error) {
			m.doneCh <- err
		},
	}); err != nil {
		logger.Error("failed to start launcher", logging.Field("error", err))
		m.doneCh <- err
	} else {
		m.running = true
	}

	return m
}

func (m *headlessModel) Init() tea.Cmd {
	return tea.Batch(
		waitForLog(m.logCh),
		waitForStatus(m.statusCh),
		waitForFile(m.fileCh),
		waitForWorld(m.worldCh),
		waitForDone(m.doneCh),
		tickCmd(),
	)
}

func waitForLog(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(line)
	}
}

func waitForStatus(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(status)
	}
}

func waitForFile(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return fileDetectedMsg(path)
	}
}

func waitForWorld(ch <-chan worldMsg) tea.Cmd {
	return func() tea.Msg {
		world, ok := <-ch
		if !ok {
			return nil
		}
		return world
	}
}

func waitForDone(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return runDoneMsg{err: <-ch}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(updateTickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
