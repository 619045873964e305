//go:build windows

// Package service runs the keysender listener under the Windows Service
// Control Manager.
package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sys/windows/svc"

	"github.com/keysender/keysender/internal/daemon"
	"github.com/keysender/keysender/pkg/logger"
)

const acceptedCommands = svc.AcceptStop | svc.AcceptShutdown

// startGrace is how long Execute waits for an immediate Start failure
// before reporting Running.
const startGrace = 50 * time.Millisecond

// Runner is the listener lifecycle driven by the handler.
type Runner interface {
	// Start serves the trigger channel until ctx is canceled.
	Start(ctx context.Context) error
	// Shutdown stops a running listener.
	Shutdown() error
	IsRunning() bool
}

// WindowsHandler implements svc.Handler for the listener.
type WindowsHandler struct {
	runner Runner
	log    logger.Logger
}

// NewWindowsHandler creates a service handler around runner. A nil log
// discards messages.
func NewWindowsHandler(runner Runner, log logger.Logger) *WindowsHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &WindowsHandler{runner: runner, log: log}
}

// Execute implements svc.Handler. Service start arguments are ignored; the
// listener reads its options file.
//
//	StartPending -> Running -> StopPending -> Stopped
//
// The exit code is 1 when the listener fails to start, fails while running
// or fails to shut down.
func (h *WindowsHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}
	h.log.Info("KeySender service starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startErr := make(chan error, 1)
	go func() {
		startErr <- h.runner.Start(ctx)
	}()

	select {
	case err := <-startErr:
		if err == nil {
			err = errors.New("listener exited during startup")
		}
		h.log.Error("Failed to start KeySender service: %v", err)
		status <- svc.Status{State: svc.Stopped}
		return false, 1
	case <-time.After(startGrace):
	}

	status <- svc.Status{State: svc.Running, Accepts: acceptedCommands}
	h.log.Info("KeySender service started")

	for {
		select {
		case req, ok := <-requests:
			if !ok {
				return false, 0
			}
			switch req.Cmd {
			case svc.Interrogate:
				status <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				return h.stop(status, cancel)
			}
		case err := <-startErr:
			if err != nil {
				h.log.Error("KeySender listener failed: %v", err)
				status <- svc.Status{State: svc.Stopped}
				return false, 1
			}
			status <- svc.Status{State: svc.Stopped}
			return false, 0
		}
	}
}

func (h *WindowsHandler) stop(status chan<- svc.Status, cancel context.CancelFunc) (bool, uint32) {
	h.log.Info("KeySender service stopping...")
	status <- svc.Status{State: svc.StopPending}

	cancel()
	if err := h.runner.Shutdown(); err != nil && !errors.Is(err, daemon.ErrNotRunning) {
		h.log.Error("Error during service shutdown: %v", err)
		status <- svc.Status{State: svc.Stopped}
		return false, 1
	}

	h.log.Info("KeySender service stopped")
	status <- svc.Status{State: svc.Stopped}
	return false, 0
}

// AcceptedCommands returns the service commands this handler accepts.
func (h *WindowsHandler) AcceptedCommands() svc.Accepted {
	return acceptedCommands
}
