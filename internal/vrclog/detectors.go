package vrclog

import (
	"regexp"
	"strings"
	"time"
)

// Log line timestamps look like "2025.03.19 11:07:23". Separator variants
// have been observed across client versions, so dot, dash and slash are
// all accepted.
const timestampGroup = `(\d{4}[./-]\d{2}[./-]\d{2} \d{2}:\d{2}:\d{2})`

// The log format is not a committed contract. Each concern gets its own
// named detector so a single upstream format change breaks one pattern,
// not a monolith.
var (
	instanceJoinPattern     = regexp.MustCompile(timestampGroup + `.*?\[Behaviour\] Joining (.+?) (wrld_[0-9a-fA-F-]+):`)
	roomEntryPattern        = regexp.MustCompile(`Entering Room: (.+)`)
	worldIDPattern          = regexp.MustCompile(`wrld_[0-9a-fA-F-]+`)
	roomJoinCompletePattern = regexp.MustCompile(timestampGroup + `.*?\[Behaviour\] (?:Room Join Completed for .+|OnJoinedRoom has been called)`)

	playerJoinPattern = regexp.MustCompile(timestampGroup + `.*?\[Behaviour\] OnPlayerJoined (.+)`)
	playerLeftPattern = regexp.MustCompile(timestampGroup + `.*?\[Behaviour\] OnPlayerLeft (.+)`)
	remoteInitPattern = regexp.MustCompile(timestampGroup + `.*?\[Behaviour\] Initialized PlayerAPI "([^"]+)" is remote`)
	avatarLoadPattern = regexp.MustCompile(timestampGroup + `.*?\[Behaviour\] Spawning avatar for (.+)`)

	localInitPattern = regexp.MustCompile(`\[Behaviour\] Initialized PlayerAPI "([^"]+)" is local`)
	authUserPattern  = regexp.MustCompile(`User Authenticated: ([^(]+) \(usr_[0-9a-f-]+\)`)

	timestampOnlyPattern = regexp.MustCompile(timestampGroup)
)

var timestampNormalizer = strings.NewReplacer("-", ".", "/", ".")

// parseLogTimestamp converts a matched timestamp group to a time.Time.
// Garbled values report false so the caller can skip that line.
func parseLogTimestamp(value string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006.01.02 15:04:05", timestampNormalizer.Replace(value), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// detectInstanceJoin finds the authoritative world identity: the last
// "Joining <world> <id>:" line in the tail, which carries timestamp, name
// and instance id together.
func detectInstanceJoin(lines []string) (worldEvent, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		match := instanceJoinPattern.FindStringSubmatch(lines[i])
		if match == nil {
			continue
		}
		at, ok := parseLogTimestamp(match[1])
		if !ok {
			continue
		}
		name := strings.TrimSpace(match[2])
		if name == "" {
			name = UnknownWorld
		}
		return worldEvent{At: at, Name: name, ID: match[3]}, true
	}
	return worldEvent{}, false
}

// detectRoomEntry is the weaker fallback for logs predating the instance
// join line. The world id, when present, is embedded in the entry text.
func detectRoomEntry(lines []string) (worldEvent, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		match := roomEntryPattern.FindStringSubmatch(lines[i])
		if match == nil {
			continue
		}
		entry := strings.TrimSpace(match[1])

		event := worldEvent{Name: entry}
		if id := worldIDPattern.FindString(entry); id != "" {
			event.ID = id
			name := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(entry, id, ""), "()", ""))
			name = strings.TrimSpace(strings.Trim(name, "()"))
			if name == "" {
				name = UnknownWorld
			}
			event.Name = name
		}
		if tsMatch := timestampOnlyPattern.FindStringSubmatch(lines[i]); tsMatch != nil {
			if at, ok := parseLogTimestamp(tsMatch[1]); ok {
				event.At = at
			}
		}
		return event, true
	}
	return worldEvent{}, false
}

// detectRoomJoinComplete returns the latest room-join confirmation
// timestamp, used to refine the join time when it lands strictly after
// the detected instance join.
func detectRoomJoinComplete(lines []string) (time.Time, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		match := roomJoinCompletePattern.FindStringSubmatch(lines[i])
		if match == nil {
			continue
		}
		if at, ok := parseLogTimestamp(match[1]); ok {
			return at, true
		}
	}
	return time.Time{}, false
}

func collectPlayerEvents(lines []string, pattern *regexp.Regexp) []playerEvent {
	events := []playerEvent{}
	for _, line := range lines {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		at, ok := parseLogTimestamp(match[1])
		if !ok {
			continue
		}
		name := strings.TrimSpace(match[2])
		if name == "" {
			continue
		}
		events = append(events, playerEvent{At: at, Name: name})
	}
	return events
}

// The four co-presence detectors. Join, remote-init and avatar-load all
// add a player; leave removes one.

func detectPlayerJoins(lines []string) []playerEvent {
	return collectPlayerEvents(lines, playerJoinPattern)
}

func detectPlayerLeaves(lines []string) []playerEvent {
	return collectPlayerEvents(lines, playerLeftPattern)
}

func detectRemoteInits(lines []string) []playerEvent {
	return collectPlayerEvents(lines, remoteInitPattern)
}

func detectAvatarLoads(lines []string) []playerEvent {
	return collectPlayerEvents(lines, avatarLoadPattern)
}

// detectLocalPlayer finds the local player's own name: a local PlayerAPI
// initialization wins, the authentication line is the fallback.
func detectLocalPlayer(lines []string) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if match := localInitPattern.FindStringSubmatch(lines[i]); match != nil {
			if name := strings.TrimSpace(match[1]); name != "" {
				return name, true
			}
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if match := authUserPattern.FindStringSubmatch(lines[i]); match != nil {
			if name := strings.TrimSpace(match[1]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}
