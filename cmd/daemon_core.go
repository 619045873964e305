package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/internal/config"
	daemonpkg "github.com/keysender/keysender/internal/daemon"
	"github.com/keysender/keysender/internal/dispatch"
	"github.com/keysender/keysender/internal/history"
	"github.com/keysender/keysender/internal/inject"
	"github.com/keysender/keysender/internal/scheduler"
	"github.com/keysender/keysender/internal/sender"
	"github.com/keysender/keysender/pkg/logger"
)

var errSenderStopTimeout = errors.New("sender did not stop in time")

// newEmitter creates the key injector. Replaced in tests.
var newEmitter = func(kt inject.KeyType, log logger.Logger) (sender.Emitter, error) {
	em, err := inject.NewEmitter(kt, log)
	if err != nil {
		return nil, err
	}
	return em, nil
}

// DaemonComponents holds all initialized listener components.
// This allows for unified initialization and cleanup across
// console mode and Windows service mode.
type DaemonComponents struct {
	Options   *config.Options
	Queue     *dispatch.Queue
	Sender    *sender.Sender
	History   *history.Store
	Scheduler *scheduler.Scheduler
	Runner    *daemonpkg.Runner

	logger       logger.Logger
	stopSchedule context.CancelFunc
}

// Close releases all component resources in reverse order of initialization.
// The sender is stopped first so its final notification still reaches the
// history store.
func (c *DaemonComponents) Close() error {
	var result *multierror.Error
	c.logger.Info("Shutting down listener...")

	if c.stopSchedule != nil {
		c.stopSchedule()
	}

	if c.Sender != nil {
		c.Sender.Stop()
		select {
		case <-c.Sender.Done():
		case <-time.After(common.DefaultShutdownTimeout):
			result = multierror.Append(result, errSenderStopTimeout)
		}
	}

	if c.Queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), common.DefaultShutdownTimeout)
		err := c.Queue.Close(ctx)
		cancel()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("dispatch queue: %w", err))
		}
		st := c.Queue.Stats()
		c.logger.Info("Notifications: %d queued, %d delivered, %d panicked, %d dropped",
			st.Enqueued, st.Processed, st.Panicked, st.Dropped)
	}

	if c.History != nil {
		if err := c.History.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("history: %w", err))
		}
	}

	c.logger.Info("Listener stopped")
	return result.ErrorOrNil()
}

// onSchedule applies a fired autostart event to the sender.
func (c *DaemonComponents) onSchedule(ev scheduler.ScheduleEvent) {
	c.logger.Info("Autostart %s: %s", ev.ID, ev.Action)
	switch ev.Action {
	case scheduler.ActionStart:
		if err := c.Sender.Start(); err != nil && !errors.Is(err, sender.ErrAlreadyRunning) {
			c.logger.Warning("Autostart %s: %v", ev.ID, err)
		}
	case scheduler.ActionStop:
		c.Sender.Stop()
	case scheduler.ActionToggle:
		if _, err := c.Sender.Toggle(); err != nil {
			c.logger.Warning("Autostart %s: %v", ev.ID, err)
		}
	}
}

// initDaemonComponents initializes all listener components from the options
// file in dir. channel overrides the configured channel when not empty.
// This is the shared initialization used by both console mode and Windows
// service mode.
//
// On error, any partially initialized components are cleaned up before returning.
var initDaemonComponents = func(log logger.Logger, dir, channel string) (*DaemonComponents, error) {
	opts, err := config.LoadOrDefault(appFs, config.Path(dir))
	if err != nil {
		log.Error("Options could not be loaded: %v", err)
		return nil, err
	}
	if channel != "" {
		opts.Channel = channel
	}
	policy, err := opts.Policy()
	if err != nil {
		return nil, err
	}
	key, err := opts.Trigger()
	if err != nil {
		return nil, err
	}

	em, err := newEmitter(opts.KeyType, log)
	if err != nil {
		log.Error("Key injector initialization failed: %v", err)
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	hist, err := history.Open(filepath.Join(dir, config.HistoryFileName), log)
	if err != nil {
		log.Error("History initialization failed: %v", err)
		return nil, err
	}

	c := &DaemonComponents{
		Options: opts,
		Queue:   dispatch.NewQueue(log),
		History: hist,
		logger:  log,
	}
	c.Sender = sender.New(em, c.Queue, log)
	if err := c.Sender.SetPolicy(policy); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Sender.Subscribe(hist)
	c.Sender.Subscribe(sender.ObserverFuncs{
		Started: func(n sender.Notification) {
			log.Info("Sending started (%s)", n.Policy.Kind())
		},
		Stopped: func(n sender.Notification) {
			log.Info("Sending stopped (%s)", n.Reason)
		},
	})

	future, missed, err := scheduler.Plan(opts.Autostart, time.Now())
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	for _, e := range missed {
		log.Warning("Autostart at %s already passed, skipping", e.At.Format(time.RFC3339))
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopSchedule = cancel
	c.Scheduler = scheduler.New(ctx, c.onSchedule)
	for _, ev := range future {
		log.Info("Autostart %s: %s at %s", ev.ID, ev.Action, ev.TriggerAt.Format(time.RFC3339))
		c.Scheduler.Add(ev)
	}

	c.Runner = daemonpkg.New(&daemonpkg.Config{
		Channel:         opts.ChannelName(),
		TriggerKey:      key,
		ShutdownTimeout: common.DefaultShutdownTimeout,
	}, &daemonpkg.Dependencies{
		Toggler: c.Sender,
		Log:     log,
	})
	return c, nil
}
