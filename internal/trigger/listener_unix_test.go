//go:build !windows

package trigger

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/internal/sender"
	"github.com/keysender/keysender/pkg/logger"
)

// socketName returns an absolute channel name in a short temp dir, keeping
// the socket path under the unix path length limit.
func socketName(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ks")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "trigger.sock")
}

func TestListen_Exclusive(t *testing.T) {
	name := socketName(t)
	l, err := Listen(name, newFakeToggler(), nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()
	_, errc := serve(t, l)

	_, err = Listen(name, newFakeToggler(), nil)
	if !errors.Is(err, ErrChannelInUse) {
		t.Fatalf("expected ErrChannelInUse, got %v", err)
	}
	if !errors.Is(err, common.ErrState) {
		t.Error("ErrChannelInUse should be a state error")
	}

	l.Close()
	if err := waitServe(t, errc); err != nil {
		t.Errorf("Serve: %v", err)
	}

	// Once released the name can be bound again.
	l2, err := Listen(name, newFakeToggler(), nil)
	if err != nil {
		t.Fatalf("Listen after Close: %v", err)
	}
	l2.Close()
}

func TestListen_RemovesStaleSocket(t *testing.T) {
	name := socketName(t)
	stale, err := net.ListenUnix("unix", &net.UnixAddr{Name: name, Net: "unix"})
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	stale.SetUnlinkOnClose(false)
	stale.Close()
	if _, err := os.Stat(name); err != nil {
		t.Fatalf("stale socket file missing: %v", err)
	}

	l, err := Listen(name, newFakeToggler(), nil)
	if err != nil {
		t.Fatalf("Listen over stale socket: %v", err)
	}
	l.Close()
}

func TestListen_ConcurrentBindHasOneWinner(t *testing.T) {
	name := socketName(t)
	const callers = 8

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make(chan error, callers)
		won     = make(chan *Listener, callers)
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			l, err := Listen(name, newFakeToggler(), nil)
			if err == nil {
				won <- l
			}
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)
	close(won)

	winners := 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case !errors.Is(err, ErrChannelInUse):
			t.Errorf("loser got %v, want ErrChannelInUse", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one listener, got %d", winners)
	}

	l := <-won
	defer l.Close()
	tg := l.toggler.(*fakeToggler)
	_, errc := serve(t, l)
	key, _ := NewTriggerKey(0x7A)
	h := NewHook(name, key, nil)
	defer h.Close()
	if err := h.Signal(context.Background()); err != nil {
		t.Fatalf("Signal to winner: %v", err)
	}
	tg.wait(t)
	l.Close()
	waitServe(t, errc)
}

func TestListen_StaleSocketWithoutLockHolder(t *testing.T) {
	name := socketName(t)
	stale, err := net.ListenUnix("unix", &net.UnixAddr{Name: name, Net: "unix"})
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	defer stale.Close()

	// A live socket nobody holds the lock for still counts as in use.
	if _, err := Listen(name, newFakeToggler(), nil); !errors.Is(err, ErrChannelInUse) {
		t.Fatalf("expected ErrChannelInUse, got %v", err)
	}
}

func TestHookToListener(t *testing.T) {
	name := socketName(t)
	tg := newFakeToggler()
	l, err := Listen(name, tg, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	_, errc := serve(t, l)

	key, _ := NewTriggerKey(0x7A)
	h := NewHook(name, key, nil)
	defer h.Close()

	if h.Observe(0x41) {
		t.Error("non-trigger key should not match")
	}
	if !h.Observe(0x7A) {
		t.Fatal("trigger key should match")
	}
	if got := tg.wait(t); got != sender.Running {
		t.Errorf("expected Running, got %s", got)
	}
	if !h.Observe(0x7A) {
		t.Fatal("trigger key should match")
	}
	if got := tg.wait(t); got != sender.Idle {
		t.Errorf("expected Idle, got %s", got)
	}

	// Changing the key takes effect immediately.
	other, _ := NewTriggerKey(0x41)
	h.SetKey(other)
	if h.Observe(0x7A) {
		t.Error("old key should no longer match")
	}
	if !h.Observe(0x41) {
		t.Error("new key should match")
	}
	tg.wait(t)

	l.Close()
	waitServe(t, errc)
	if tg.Calls() != 3 {
		t.Errorf("expected 3 toggles, got %d", tg.Calls())
	}
}

func TestHookRunFeedsCodes(t *testing.T) {
	name := socketName(t)
	tg := newFakeToggler()
	l, err := Listen(name, tg, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()
	serve(t, l)

	key, _ := NewTriggerKey(0x20)
	h := NewHook(name, key, nil)
	defer h.Close()

	codes := make(chan int32, 4)
	codes <- 0x10
	codes <- 0x20
	codes <- 0x30
	close(codes)
	if err := h.Run(context.Background(), codes); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tg.wait(t)
	select {
	case <-tg.toggled:
		t.Error("only one code matched the trigger key")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHookSignalRedialsAfterListenerRestart(t *testing.T) {
	name := socketName(t)
	tg1 := newFakeToggler()
	l1, err := Listen(name, tg1, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	_, errc := serve(t, l1)

	key, _ := NewTriggerKey(0x7A)
	h := NewHook(name, key, nil)
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.Signal(ctx); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	tg1.wait(t)
	l1.Close()
	waitServe(t, errc)

	tg2 := newFakeToggler()
	l2, err := Listen(name, tg2, nil)
	if err != nil {
		t.Fatalf("Listen again: %v", err)
	}
	defer l2.Close()
	serve(t, l2)

	if err := h.Signal(ctx); err != nil {
		t.Fatalf("Signal after restart: %v", err)
	}
	tg2.wait(t)
}

func TestHookSignalWithoutListener(t *testing.T) {
	h := NewHook(socketName(t), 0x7A, nil)
	defer h.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Signal(ctx); err == nil {
		t.Fatal("expected an error with no listener")
	}
}

func TestHookClosed(t *testing.T) {
	h := NewHook(socketName(t), 0x7A, nil)
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.Observe(0x7A) {
		t.Error("Observe after Close should report no signal")
	}
	if err := h.Signal(context.Background()); !errors.Is(err, ErrHookClosed) {
		t.Errorf("expected ErrHookClosed, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
