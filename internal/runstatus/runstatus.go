// Package runstatus holds the watch-session lifecycle vocabulary shared
// by the orchestrator and the status surfaces.
package runstatus

const (
	Stopped          = "Stopped"
	Starting         = "Starting"
	Watching         = "Watching"
	WatchingBucketed = "Watching (date-bucketed)"
	Degraded         = "Watching (no game log)"
)
