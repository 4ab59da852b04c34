package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"vsa-launcher/internal/fileops"
	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/pngmeta"
)

// processFile runs the per-file pipeline: stability wait, idempotence
// check, destination planning, then embed-or-copy. Every failure is a
// per-file failure; the session keeps running.
func (s *Session) processFile(ctx context.Context, path string) {
	base := filepath.Base(path)

	if err := fileops.WaitForAccess(ctx, path, s.opts.AccessAttempts, s.opts.AccessInterval); err != nil {
		s.reportError("file never became accessible: "+base, err)
		return
	}

	if pngmeta.IsProcessed(path) {
		s.logger.Debug("skipping already-processed file", logging.Field("path", path))
		s.status("Skipped (already processed): " + base)
		return
	}

	if s.callbacks.OnFileDetected != nil {
		s.callbacks.OnFileDetected(path)
	}

	fileTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		fileTime = info.ModTime()
	}
	plan := s.policy.Plan(path, s.opts.OutputDir, s.opts.Naming, fileTime)
	destination := plan.Path()

	var err error
	if s.opts.MetadataEnabled {
		err = s.embedAndCopy(ctx, path, destination)
	} else {
		err = fileops.CopyWithRetry(ctx, path, destination, s.opts.CopyRetries, s.opts.CopyDelay)
	}
	if err != nil {
		s.reportError("failed to archive "+base, err)
		return
	}

	s.counts.processed.Add(1)
	s.logger.Info("archived screenshot",
		logging.Field("source", path),
		logging.Field("destination", destination))
	s.status("Archived: " + filepath.Base(destination))
}

// embedAndCopy stages the source into a temp file with the long retry
// budget, embeds metadata from temp to destination, and falls back to a
// raw copy on embed failure so the capture itself is never lost.
func (s *Session) embedAndCopy(ctx context.Context, source string, destination string) error {
	tempPath, err := fileops.CopyToTemp(ctx, source, s.opts.TempCopyRetries, s.opts.CopyDelay)
	if err != nil {
		// Could not even stage the file; try the raw copy path directly.
		return fileops.CopyWithRetry(ctx, source, destination, s.opts.CopyRetries, s.opts.CopyDelay)
	}
	defer os.Remove(tempPath)

	metadata := s.metadata.GenerateMetadata()
	if err := pngmeta.Embed(tempPath, destination, metadata); err != nil {
		s.logger.Warn("metadata embed failed, copying without metadata",
			logging.Field("source", source),
			logging.Field("error", err))
		return fileops.CopyWithRetry(ctx, tempPath, destination, s.opts.CopyRetries, s.opts.CopyDelay)
	}

	// The destination exists either way; a bad readback is logged, not fatal.
	if !pngmeta.Verify(destination, metadata) {
		s.logger.Warn("metadata verification failed",
			logging.Field("destination", destination))
		s.status("Metadata verification failed: " + filepath.Base(destination))
	}

	if s.opts.ExportSidecar {
		if sidecar, err := pngmeta.ExportText(destination, ""); err != nil {
			s.logger.Debug("sidecar export failed",
				logging.Field("destination", destination),
				logging.Field("error", err))
		} else {
			s.logger.Debug("wrote metadata sidecar", logging.Field("path", sidecar))
		}
	}
	return nil
}
