// Package watcher owns the folder-watch session: it reacts to screenshot
// creation events and runs each file through the stability, idempotence,
// naming and metadata pipeline.
package watcher

import (
	"sync/atomic"
	"time"

	"vsa-launcher/internal/namegen"
)

// MetadataSource supplies the record embedded into each processed file.
// The log parser satisfies this; tests substitute a fixed map.
type MetadataSource interface {
	GenerateMetadata() map[string]string
}

// Callbacks deliver session activity to the owning collaborator (the
// status UI or the companion GUI). Nil members are skipped. All callbacks
// fire from session goroutines.
type Callbacks struct {
	OnStatus       func(message string)
	OnFileDetected func(path string)
	OnError        func(err error)
}

// Options configures one watch session.
type Options struct {
	SourceDir string
	OutputDir string
	Naming    namegen.Options

	// MetadataEnabled selects the embed pipeline over a plain copy.
	MetadataEnabled bool

	// ExportSidecar writes a text sidecar of the embedded record next to
	// each archived file.
	ExportSidecar bool

	// AccessAttempts/AccessInterval bound the initial stability wait.
	AccessAttempts int
	AccessInterval time.Duration

	// CopyRetries/CopyDelay bound destination copies. TempCopyRetries is
	// the longer budget for the staging copy, taken while the game client
	// is most likely to still hold its lock.
	CopyRetries     int
	CopyDelay       time.Duration
	TempCopyRetries int

	// BucketDiscoveryPeriod is how often a date-bucketed source root is
	// re-scanned for new month folders.
	BucketDiscoveryPeriod time.Duration
}

// Counters are the session's running totals, queryable at any time.
type Counters struct {
	Detected  uint64
	Processed uint64
	Errors    uint64
}

type counters struct {
	detected  atomic.Uint64
	processed atomic.Uint64
	errors    atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Detected:  c.detected.Load(),
		Processed: c.processed.Load(),
		Errors:    c.errors.Load(),
	}
}
