// Package daemon provides the listener process runner for keysender.
// It manages the lifecycle of the trigger channel listener including start,
// stop, and graceful shutdown capabilities.
package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/internal/trigger"
	"github.com/keysender/keysender/pkg/logger"
)

// Sentinel errors for the runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running listener.
	ErrAlreadyRunning = errors.New("listener is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped listener.
	ErrNotRunning = errors.New("listener is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// DefaultEventSource is the Windows Event Log source name.
const DefaultEventSource = "KeySender"

// Config holds the configuration for the runner.
type Config struct {
	// Channel is the trigger channel name to bind.
	Channel string

	// TriggerKey is reported in listening errors.
	TriggerKey trigger.TriggerKey

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// A zero value means no timeout.
	ShutdownTimeout time.Duration
}

// Server is a bound trigger channel.
type Server interface {
	Serve(ctx context.Context) error
	Close() error
}

// Dependencies holds the external dependencies for the runner.
// This enables dependency injection for testing.
type Dependencies struct {
	// Toggler is what the trigger channel toggles.
	Toggler trigger.Toggler

	// Log receives listener messages. If nil, messages are discarded.
	Log logger.Logger

	// ServerFactory binds the trigger channel.
	// If nil, trigger.Listen is used.
	ServerFactory func(channel string) (Server, error)

	// ShutdownFunc is called during shutdown to clean up resources.
	// If nil, no cleanup function is called.
	ShutdownFunc func() error
}

// Runner manages the listener lifecycle.
type Runner struct {
	config  *Config
	deps    *Dependencies
	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	server  Server
}

// New creates a new runner with the given configuration and dependencies.
// If config is nil, default values are used.
// If deps is nil, default dependencies (using trigger.Listen) are used.
func New(config *Config, deps *Dependencies) *Runner {
	cfg := applyConfigDefaults(config)
	d := applyDependencyDefaults(cfg, deps)

	return &Runner{
		config: cfg,
		deps:   d,
	}
}

// applyConfigDefaults returns a Config with default values applied for empty fields.
func applyConfigDefaults(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.Channel == "" {
		config.Channel = common.ChannelName()
	}
	return config
}

// applyDependencyDefaults returns Dependencies with default values applied.
func applyDependencyDefaults(cfg *Config, deps *Dependencies) *Dependencies {
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.Log == nil {
		deps.Log = logger.NewNopLogger()
	}
	if deps.ServerFactory == nil {
		deps.ServerFactory = func(channel string) (Server, error) {
			l, err := trigger.Listen(channel, deps.Toggler, deps.Log)
			if err != nil {
				return nil, err
			}
			l.SetTriggerKey(cfg.TriggerKey)
			return l, nil
		}
	}
	return deps
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Start binds the trigger channel and serves it until the context is
// canceled, Shutdown is called, or listening fails. It returns nil after a
// graceful stop and the listening error otherwise.
// Returns ErrAlreadyRunning if the runner is already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	// Create cancellable context
	ctx, r.cancel = context.WithCancel(ctx)

	// Bind BEFORE setting running=true so a channel in use leaves the
	// runner stopped.
	server, err := r.deps.ServerFactory(r.config.Channel)
	if err != nil {
		r.cancel()
		r.mu.Unlock()
		return err
	}
	r.server = server
	r.running = true
	r.mu.Unlock()

	r.deps.Log.Info("Listening for toggle signals on %s", r.config.Channel)
	err = server.Serve(ctx)

	r.cleanupOnStop()
	if err != nil {
		r.deps.Log.Error("Trigger channel failed: %v", err)
	}
	return err
}

// cleanupOnStop performs cleanup when the listener stops.
func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
	r.closeServer()
}

// closeServer closes the server if it exists.
// Caller must hold the mutex.
// Close errors are intentionally ignored as this is cleanup code.
func (r *Runner) closeServer() {
	if r.server != nil {
		_ = r.server.Close()
		r.server = nil
	}
}

// Shutdown gracefully stops the listener.
// Returns ErrNotRunning if the listener is not running.
// Returns ErrShutdownTimeout if the shutdown function exceeds the configured timeout.
func (r *Runner) Shutdown() error {
	if err := r.validateRunning(); err != nil {
		return err
	}

	// Execute shutdown function if configured
	if err := r.executeShutdownFunc(); err != nil {
		return err
	}

	// Perform final cleanup
	r.performShutdown()

	return nil
}

// validateRunning checks if the listener is running.
// Returns ErrNotRunning if not running.
func (r *Runner) validateRunning() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrNotRunning
	}
	return nil
}

// executeShutdownFunc runs the shutdown function with timeout if configured.
// Returns ErrShutdownTimeout if the function exceeds the timeout.
func (r *Runner) executeShutdownFunc() error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}

	if r.config.ShutdownTimeout > 0 {
		return r.executeWithTimeout(r.deps.ShutdownFunc, r.config.ShutdownTimeout)
	}

	// Shutdown function error is intentionally ignored during cleanup.
	// The shutdown must proceed regardless of cleanup errors.
	_ = r.deps.ShutdownFunc()
	return nil
}

// executeWithTimeout runs a function with a timeout.
// Returns ErrShutdownTimeout if the function exceeds the timeout.
// Returns the function's error if it completes within the timeout.
func (r *Runner) executeWithTimeout(fn func() error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		r.forceStop()
		return ErrShutdownTimeout
	}
}

// forceStop forces the listener to stop without waiting for cleanup.
func (r *Runner) forceStop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
}

// performShutdown performs the final shutdown operations.
func (r *Runner) performShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
	r.closeServer()
}

// IsRunning returns true if the listener is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
