// Package vrclog tails the VRChat client's output log and maintains the
// parser's belief about the current world instance and who is in it.
package vrclog

import (
	"time"
)

const (
	// UnknownWorld is reported whenever no world identity can be resolved
	// from the log tail.
	UnknownWorld = "Unknown World"
	// UnknownUser is reported until the local player's name is detected.
	UnknownUser = "Unknown User"
	// AloneSentinel replaces an empty co-present list in generated
	// metadata and joined-name strings.
	AloneSentinel = "ボッチ(だれもいません)"
)

// WorldContext is a snapshot of the current game location: world identity,
// when it was joined, the co-present players, and the local player's own
// name. Co-presence is always scoped to the current instance.
type WorldContext struct {
	WorldName   string
	WorldID     string
	JoinedAt    time.Time
	Players     []string
	LocalPlayer string
}

// playerEvent is one detector hit: a player name with the log line's
// timestamp.
type playerEvent struct {
	At   time.Time
	Name string
}

// worldEvent is a resolved world identity with the timestamp of the line
// that established it.
type worldEvent struct {
	At   time.Time
	Name string
	ID   string
}
