// Package fileops absorbs filesystem flakiness from the capturing game
// client, which can hold a transient lock on a screenshot for a short
// window after the creation event fires.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var (
	ErrAccessTimeout = errors.New("file not accessible within retry budget")
)

const (
	// DefaultAccessInterval is the poll spacing for WaitForAccess.
	DefaultAccessInterval = 500 * time.Millisecond
	// DefaultAccessAttempts bounds the WaitForAccess poll loop.
	DefaultAccessAttempts = 10
)

// WaitForAccess polls until the file can be opened for exclusive writing,
// which is the signal the producing process has released its handle. It
// returns ErrAccessTimeout after maxAttempts failed tries. The context
// cancels the wait between attempts.
func WaitForAccess(ctx context.Context, path string, maxAttempts int, interval time.Duration) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultAccessAttempts
	}
	if interval <= 0 {
		interval = DefaultAccessInterval
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}

		err := openExclusive(path)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrAccessTimeout, lastErr)
}

// CopyWithRetry copies source to destination, retrying the whole copy on
// any I/O failure with a constant delay between attempts. maxRetries
// bounds the total number of attempts. Failure comes back as an error,
// never a panic, so callers can take a degraded path.
func CopyWithRetry(ctx context.Context, source string, destination string, maxRetries int, delay time.Duration) error {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	if delay <= 0 {
		delay = DefaultAccessInterval
	}

	err := retryConstant(ctx, maxRetries, delay, func() error {
		return copyFile(source, destination)
	})
	if err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(source), err)
	}
	return nil
}

// retryConstant runs op up to maxTries times with a constant delay
// between attempts, stopping early on success or context cancellation.
func retryConstant(ctx context.Context, maxTries int, delay time.Duration, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(maxTries)),
	)
	return err
}

// CopyToTemp stages source into a fresh temporary file and returns its
// path. The caller owns cleanup. Used so metadata embedding never reads
// from the still-warm source path directly.
func CopyToTemp(ctx context.Context, source string, maxRetries int, delay time.Duration) (string, error) {
	temp, err := os.CreateTemp("", "vsa-staging-*"+filepath.Ext(source))
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	tempPath := temp.Name()
	temp.Close()

	if err := CopyWithRetry(ctx, source, tempPath, maxRetries, delay); err != nil {
		os.Remove(tempPath)
		return "", err
	}
	return tempPath, nil
}

func copyFile(source string, destination string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := filepath.Dir(destination); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(destination)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
