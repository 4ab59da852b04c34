package headless

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const stopTimeout = 10 * time.Second

func (m *headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case logMsg:
		m.appendLog(string(msg))
		return m, waitForLog(m.logCh)

	case statusMsg:
		m.applyStatus(string(msg))
		return m, waitForStatus(m.statusCh)

	case fileDetectedMsg:
		m.lastFile = string(msg)
		return m, waitForFile(m.fileCh)

	case worldMsg:
		m.worldName = msg.name
		m.worldID = msg.id
		return m, waitForWorld(m.worldCh)

	case tickMsg:
		m.counters = m.runner.Counters()
		return m, tickCmd()

	case runDoneMsg:
		m.running = false
		if msg.err != nil {
			m.status = "Stopped: " + msg.err.Error()
			m.kind = statusError
		} else {
			m.status = "Stopped"
			m.kind = statusIdle
		}
		if m.quitting {
			return m, func() tea.Msg { return quitNowMsg{} }
		}
		return m, nil

	case quitNowMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m *headlessModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.quitting {
			return m, tea.Quit
		}
		m.quitting = true
		m.status = "Stopping"
		m.kind = statusStopping
		if !m.running {
			return m, tea.Quit
		}
		m.runner.Stop()
		return m, stopDeadlineCmd()
	case "d":
		enabled := !m.logger.DebugEnabled()
		m.logger.SetDebugEnabled(enabled)
		if enabled {
			m.appendLog("debug logging enabled")
		} else {
			m.appendLog("debug logging disabled")
		}
		return m, nil
	}
	return m, nil
}

// stopDeadlineCmd forces the quit if teardown hangs past the deadline.
func stopDeadlineCmd() tea.Cmd {
	return tea.Tick(stopTimeout, func(time.Time) tea.Msg {
		return quitNowMsg{}
	})
}

func (m *headlessModel) applyStatus(status string) {
	m.status = status
	switch {
	case strings.HasPrefix(status, "Watching"):
		m.kind = statusWatching
	case strings.HasPrefix(status, "Stopped"):
		m.kind = statusIdle
	case strings.Contains(status, "failed") || strings.Contains(status, "error"):
		m.kind = statusError
	}
	m.appendLog(status)
}

func (m *headlessModel) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > logPanelLimit {
		m.logLines = m.logLines[len(m.logLines)-logPanelLimit:]
	}
}

func (m *headlessModel) cleanup() {
	m.cleanupOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		if m.rootCancel != nil {
			m.rootCancel()
		}
		m.runner.StopAndWait(stopTimeout)
		_ = m.logger.Close()
	})
}
