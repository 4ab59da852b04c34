package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vsa-launcher/internal/config"
	"vsa-launcher/internal/logging"
	"vsa-launcher/internal/watcher"
)

type Controller struct {
	rootCtx context.Context
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	service Service
	wg      sync.WaitGroup
}

type StartHooks struct {
	OnStatus       func(string)
	OnFileDetected func(string)
	OnWorldChanged func(worldName string, worldID string)
	OnExit         func(error)
}

func NewController(rootCtx context.Context) *Controller {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	return &Controller{rootCtx: rootCtx}
}

func (c *Controller) Start(opts config.Options, settings config.Settings, logger *logging.Logger, hooks StartHooks) error {
	if logger == nil {
		panic("runtime.Controller.Start: logger must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("launcher is already running")
	}
	logger.Debug("runtime start requested",
		logging.Field("screenshot_dir", settings.ScreenshotPath),
		logging.Field("output_dir", settings.OutputPath),
		logging.Field("log_dir", opts.LogDir),
	)

	service, err := NewServiceWithHooks(opts, settings, logger, hooks)
	if err != nil {
		return err
	}

	parent := c.rootCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	c.cancel = cancel
	c.running = true
	c.service = service
	c.wg.Go(func() {
		defer cancel()
		runErr := service.RunContext(ctx)
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			logger.Debug("runtime service exited due to context cancellation", logging.Field("error", runErr))
		} else if runErr != nil {
			logger.Warn("runtime service exited with error", logging.Field("error", runErr))
		} else {
			logger.Info("runtime service exited")
		}
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()

		if hooks.OnExit != nil {
			hooks.OnExit(runErr)
		}
	})

	return nil
}

func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) Wait(timeout time.Duration) bool {
	waitDone := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waitDone)
	}()
	if timeout <= 0 {
		<-waitDone
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-waitDone:
		return true
	case <-timer.C:
		return false
	}
}

func (c *Controller) StopAndWait(timeout time.Duration) bool {
	c.Stop()
	return c.Wait(timeout)
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Counters exposes the active service's session totals for status
// surfaces; zeros when nothing is running.
func (c *Controller) Counters() watcher.Counters {
	c.mu.Lock()
	service := c.service
	c.mu.Unlock()
	if source, ok := service.(interface{ Counters() watcher.Counters }); ok {
		return source.Counters()
	}
	return watcher.Counters{}
}
