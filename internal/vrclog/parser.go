package vrclog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vsa-launcher/internal/logging"
)

const defaultRefreshPeriod = 10 * time.Second

var (
	ErrNoLogDir  = errors.New("no VRChat log directory found")
	ErrNoLogFile = errors.New("no VRChat log files present")
)

// Options configures a Parser.
type Options struct {
	// LogDir overrides the candidate directory probe when set.
	LogDir string
	// RefreshPeriod controls the auto-refresh interval in RunContext.
	RefreshPeriod time.Duration
}

// Callbacks are invoked from Refresh on the caller's goroutine.
type Callbacks struct {
	OnWorldChanged func(worldName string, worldID string)
}

// Parser maintains a WorldContext from the newest client log. Safe for
// concurrent use; all state is guarded by one mutex.
type Parser struct {
	opts      Options
	logger    *logging.Logger
	callbacks Callbacks

	mu          sync.Mutex
	logDir      string
	available   bool
	worldName   string
	worldID     string
	joinedAt    time.Time
	players     []string
	localPlayer string
	lastParse   time.Time
}

// NewParser probes for the log directory once. A missing directory is the
// degraded mode: every snapshot reports Unknown World, warned about here
// and never again per capture.
func NewParser(opts Options, logger *logging.Logger, callbacks Callbacks) *Parser {
	if logger == nil {
		panic("vrclog.NewParser: logger must not be nil")
	}
	if opts.RefreshPeriod <= 0 {
		opts.RefreshPeriod = defaultRefreshPeriod
	}

	p := &Parser{
		opts:        opts,
		logger:      logger,
		callbacks:   callbacks,
		worldName:   UnknownWorld,
		localPlayer: UnknownUser,
	}

	if dir, ok := ResolveLogDir(opts.LogDir); ok {
		p.logDir = dir
		p.available = true
		logger.Info("found VRChat log directory", logging.Field("path", dir))
	} else {
		logger.Warn("no VRChat log directory found, metadata will use defaults")
	}
	return p
}

// Available reports whether a log directory was found at construction.
func (p *Parser) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Refresh re-parses the newest log file and updates the world context.
// A world change atomically clears the co-present set and join timestamp
// before new player evidence is applied, then fires OnWorldChanged.
func (p *Parser) Refresh() error {
	p.mu.Lock()

	if !p.available {
		p.mu.Unlock()
		return ErrNoLogDir
	}

	path, ok := FindLatestLog(p.logDir)
	if !ok {
		p.mu.Unlock()
		return ErrNoLogFile
	}

	lines, err := ReadTail(path)
	if err != nil {
		p.mu.Unlock()
		return err
	}

	changed, name, id := p.applyLines(lines)
	p.lastParse = time.Now()
	p.mu.Unlock()

	if changed {
		p.logger.Info("world change detected",
			logging.Field("world", name),
			logging.Field("world_id", id))
		if p.callbacks.OnWorldChanged != nil {
			p.callbacks.OnWorldChanged(name, id)
		}
	}
	return nil
}

// applyLines updates world and player state from a log tail. Caller holds
// the mutex. Reports whether the world identity changed.
func (p *Parser) applyLines(lines []string) (bool, string, string) {
	world, found := detectInstanceJoin(lines)
	if !found {
		world, found = detectRoomEntry(lines)
	}

	changed := false
	if found && (world.Name != p.worldName || world.ID != p.worldID) {
		p.worldName = world.Name
		p.worldID = world.ID
		p.joinedAt = world.At
		p.players = nil
		changed = true
	}

	// A room-join confirmation strictly after the detected join refines
	// the gate timestamp.
	if confirmed, ok := detectRoomJoinComplete(lines); ok && confirmed.After(p.joinedAt) {
		if found && !world.At.IsZero() {
			p.joinedAt = confirmed
		}
	}

	if local, ok := detectLocalPlayer(lines); ok {
		p.localPlayer = local
	}

	p.players = p.rebuildPlayers(lines)
	return changed, p.worldName, p.worldID
}

// rebuildPlayers derives the co-present set from scratch each cycle:
// every add/remove event strictly after the join timestamp, applied in
// timestamp order. Events at exactly the join timestamp are residue from
// the previous instance and excluded.
func (p *Parser) rebuildPlayers(lines []string) []string {
	type timedEvent struct {
		playerEvent
		leave bool
		order int
	}

	events := []timedEvent{}
	add := func(batch []playerEvent, leave bool) {
		for _, event := range batch {
			events = append(events, timedEvent{playerEvent: event, leave: leave, order: len(events)})
		}
	}
	add(detectPlayerJoins(lines), false)
	add(detectPlayerLeaves(lines), true)
	add(detectRemoteInits(lines), false)
	add(detectAvatarLoads(lines), false)

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].At.Equal(events[j].At) {
			return events[i].order < events[j].order
		}
		return events[i].At.Before(events[j].At)
	})

	present := map[string]struct{}{}
	for _, event := range events {
		if !event.At.After(p.joinedAt) {
			continue
		}
		if event.Name == p.localPlayer {
			continue
		}
		if event.leave {
			delete(present, event.Name)
		} else {
			present[event.Name] = struct{}{}
		}
	}

	players := make([]string, 0, len(present))
	for name := range present {
		players = append(players, name)
	}
	sort.Strings(players)
	return players
}

// Snapshot returns a copy of the current world context.
func (p *Parser) Snapshot() WorldContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return WorldContext{
		WorldName:   p.worldName,
		WorldID:     p.worldID,
		JoinedAt:    p.joinedAt,
		Players:     append([]string(nil), p.players...),
		LocalPlayer: p.localPlayer,
	}
}

// PlayersString joins the co-present names with the separator, or the
// alone sentinel when nobody else is here.
func (p *Parser) PlayersString(separator string) string {
	snapshot := p.Snapshot()
	if len(snapshot.Players) == 0 {
		return AloneSentinel
	}
	return strings.Join(snapshot.Players, separator)
}

// GenerateMetadata builds the record embedded into an output file: the
// processed marker, world identity, co-present names, photographer and
// the wall-clock capture time.
func (p *Parser) GenerateMetadata() map[string]string {
	snapshot := p.Snapshot()

	usernames := AloneSentinel
	if len(snapshot.Players) > 0 {
		usernames = strings.Join(snapshot.Players, ".")
	}

	return map[string]string{
		"VSACheck":    "true",
		"WorldName":   snapshot.WorldName,
		"WorldID":     snapshot.WorldID,
		"Usernames":   usernames,
		"User":        snapshot.LocalPlayer,
		"CaptureTime": time.Now().Format("2006-01-02 15:04:05"),
	}
}

// Reset drops all world state back to defaults.
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.worldName = UnknownWorld
	p.worldID = ""
	p.joinedAt = time.Time{}
	p.players = nil
}

// RunContext refreshes once immediately, then on every tick until the
// context ends. Refresh errors are logged, never propagated; the log
// source disappearing mid-session must not kill the process.
func (p *Parser) RunContext(ctx context.Context) error {
	if err := p.Refresh(); err != nil {
		p.logger.Debugf("initial log parse failed: %v", err)
	}

	ticker := time.NewTicker(p.opts.RefreshPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("stopping log parser: context canceled")
			return nil
		case <-ticker.C:
			if err := p.Refresh(); err != nil {
				p.logger.Debugf("log refresh failed: %v", err)
			}
		}
	}
}
