package trigger

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// stubDial replaces dialFunc with in-memory pipes whose server ends are
// delivered on the returned channel.
func stubDial(t *testing.T) <-chan net.Conn {
	t.Helper()
	servers := make(chan net.Conn, 4)
	orig := dialFunc
	dialFunc = func(ctx context.Context, path string) (net.Conn, error) {
		server, client := net.Pipe()
		servers <- server
		return client, nil
	}
	t.Cleanup(func() { dialFunc = orig })
	return servers
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	buf := make([]byte, 16)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf[:n]
}

func TestHookKeepsOneConnection(t *testing.T) {
	servers := stubDial(t)
	h := NewHook("test", 0x7A, nil)
	defer h.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2; i++ {
			if err := h.Signal(context.Background()); err != nil {
				t.Errorf("Signal %d: %v", i, err)
			}
		}
	}()

	server := <-servers
	for i := 0; i < 2; i++ {
		if f := readFrame(t, server); !IsToggle(f) {
			t.Errorf("frame %d is not a toggle frame", i)
		}
	}
	wg.Wait()
	if len(servers) != 0 {
		t.Error("expected a single persistent connection")
	}
	if h.Sent() != 2 {
		t.Errorf("expected 2 frames sent, got %d", h.Sent())
	}
}

func TestHookRedialsOnce(t *testing.T) {
	servers := stubDial(t)
	h := NewHook("test", 0x7A, nil)
	defer h.Close()

	errc := make(chan error, 1)
	go func() { errc <- h.Signal(context.Background()) }()
	first := <-servers
	readFrame(t, first)
	if err := <-errc; err != nil {
		t.Fatalf("Signal: %v", err)
	}
	first.Close()

	go func() { errc <- h.Signal(context.Background()) }()
	second := <-servers
	if f := readFrame(t, second); !IsToggle(f) {
		t.Error("redialed connection did not carry the frame")
	}
	if err := <-errc; err != nil {
		t.Fatalf("Signal after broken connection: %v", err)
	}
}

func TestHookDialFailure(t *testing.T) {
	orig := dialFunc
	dialErr := errors.New("no listener")
	dialFunc = func(ctx context.Context, path string) (net.Conn, error) { return nil, dialErr }
	t.Cleanup(func() { dialFunc = orig })

	h := NewHook("test", 0x7A, nil)
	defer h.Close()
	if err := h.Signal(context.Background()); !errors.Is(err, dialErr) {
		t.Errorf("expected dial error, got %v", err)
	}
}

func TestHookObserveDropsWhenSaturated(t *testing.T) {
	block := make(chan struct{})
	orig := dialFunc
	dialFunc = func(ctx context.Context, path string) (net.Conn, error) {
		<-block
		return nil, errors.New("unavailable")
	}
	t.Cleanup(func() { dialFunc = orig })

	h := NewHook("test", 0x7A, nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < signalBuffer+10; i++ {
			h.Observe(0x7A)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked")
	}
	if h.Dropped() == 0 {
		t.Error("expected some signals to be dropped")
	}
	close(block)
	h.Close()
}
