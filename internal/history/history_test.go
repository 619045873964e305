package history

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/keysender/keysender/internal/sender"
	"github.com/keysender/keysender/pkg/keyseq"
	"github.com/keysender/keysender/pkg/logger"
)

func openStore(t *testing.T) (*Store, *logger.MockLogger) {
	t.Helper()
	log := logger.NewMockLogger()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, log
}

func testPolicy(t *testing.T) sender.Policy {
	t.Helper()
	p, err := sender.NewRandomizedCycle([]byte{2, 3}, keyseq.DefaultKeyUpDown, keyseq.DefaultKeyPress)
	if err != nil {
		t.Fatalf("NewRandomizedCycle: %v", err)
	}
	return p
}

func TestStore_RecordsStartAndStop(t *testing.T) {
	s, log := openStore(t)
	p := testPolicy(t)
	id := uuid.New()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.OnStarted(sender.Notification{RunID: id, State: sender.Running, Reason: sender.ReasonRequested, Policy: p, At: start})

	runs, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || !runs[0].Active() || runs[0].Duration() != 0 {
		t.Fatalf("expected one active run, got %+v", runs)
	}

	s.OnStopped(sender.Notification{RunID: id, State: sender.Idle, Reason: sender.ReasonCompleted, Policy: p, At: start.Add(90 * time.Second)})

	runs, err = s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	r := runs[0]
	if r.ID != id {
		t.Errorf("ID = %s, want %s", r.ID, id)
	}
	if r.Kind != sender.KindRandomizedCycle {
		t.Errorf("Kind = %q", r.Kind)
	}
	if r.Policy != p.String() {
		t.Errorf("Policy = %q, want %q", r.Policy, p.String())
	}
	if r.Reason != sender.ReasonCompleted {
		t.Errorf("Reason = %q", r.Reason)
	}
	if !r.StartedAt.Equal(start) || r.Duration() != 90*time.Second {
		t.Errorf("unexpected times: start %v duration %v", r.StartedAt, r.Duration())
	}
	if len(log.ErrorCalls()) != 0 || len(log.WarningCalls()) != 0 {
		t.Errorf("unexpected log output: %v %v", log.ErrorCalls(), log.WarningCalls())
	}
}

func TestStore_RecentOrderAndLimit(t *testing.T) {
	s, _ := openStore(t)
	p := testPolicy(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := range 5 {
		id := uuid.New()
		ids = append(ids, id)
		s.OnStarted(sender.Notification{RunID: id, Policy: p, At: base.Add(time.Duration(i) * time.Minute)})
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, 0},
		{-1, 0},
		{3, 3},
		{10, 5},
	}
	for _, tt := range tests {
		runs, err := s.Recent(context.Background(), tt.limit)
		if err != nil {
			t.Fatalf("Recent(%d): %v", tt.limit, err)
		}
		if len(runs) != tt.want {
			t.Errorf("Recent(%d) returned %d runs, want %d", tt.limit, len(runs), tt.want)
			continue
		}
		for i, r := range runs {
			if r.ID != ids[len(ids)-1-i] {
				t.Errorf("Recent(%d)[%d] out of order", tt.limit, i)
			}
		}
	}
}

func TestStore_DuplicateNotifications(t *testing.T) {
	s, log := openStore(t)
	p := testPolicy(t)
	id := uuid.New()
	at := time.Now()

	s.OnStarted(sender.Notification{RunID: id, Policy: p, At: at})
	s.OnStarted(sender.Notification{RunID: id, Policy: p, At: at.Add(time.Second)})
	s.OnStopped(sender.Notification{RunID: id, Reason: sender.ReasonRequested, At: at.Add(2 * time.Second)})
	s.OnStopped(sender.Notification{RunID: id, Reason: sender.ReasonCompleted, At: at.Add(3 * time.Second)})

	runs, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Reason != sender.ReasonRequested || runs[0].Duration() != 2*time.Second {
		t.Errorf("first stop must win, got %+v", runs[0])
	}
	if len(log.WarningCalls()) != 1 {
		t.Errorf("expected one warning for the second stop, got %v", log.WarningCalls())
	}
}

func TestStore_StopUnknownRun(t *testing.T) {
	s, log := openStore(t)
	s.OnStopped(sender.Notification{RunID: uuid.New(), At: time.Now()})
	w := log.WarningCalls()
	if len(w) != 1 || !strings.Contains(w[0], "unknown run") {
		t.Errorf("expected unknown run warning, got %v", w)
	}
}

func TestStore_Prune(t *testing.T) {
	s, _ := openStore(t)
	p := testPolicy(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	old, recent, active := uuid.New(), uuid.New(), uuid.New()
	s.OnStarted(sender.Notification{RunID: old, Policy: p, At: base})
	s.OnStopped(sender.Notification{RunID: old, At: base.Add(time.Minute)})
	s.OnStarted(sender.Notification{RunID: recent, Policy: p, At: base.Add(time.Hour)})
	s.OnStopped(sender.Notification{RunID: recent, At: base.Add(2 * time.Hour)})
	s.OnStarted(sender.Notification{RunID: active, Policy: p, At: base})

	n, err := s.Prune(context.Background(), base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d rows, want 1", n)
	}
	runs, _ := s.Recent(context.Background(), 10)
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs left, got %d", len(runs))
	}
	for _, r := range runs {
		if r.ID == old {
			t.Error("old run was not pruned")
		}
	}
}

func TestStore_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := uuid.New()
	s.OnStarted(sender.Notification{RunID: id, Policy: testPolicy(t), At: time.Now()})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	runs, err := s.Recent(context.Background(), 1)
	if err != nil || len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("run lost across reopen: %v %v", runs, err)
	}
}

func TestStore_AsSenderObserver(t *testing.T) {
	s, _ := openStore(t)
	q := &syncQueue{}
	snd := sender.New(nopEmitter{}, q, nil)
	snd.Subscribe(s)

	seq, _ := keyseq.NewSequence(mustEvent(t, 0x1E))
	p, _ := sender.NewTimedSequence(seq, true)
	if err := snd.StartWith(p); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	select {
	case <-snd.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("single-pass run did not complete")
	}

	runs, err := s.Recent(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("Recent: %v %v", runs, err)
	}
	if runs[0].Kind != sender.KindTimedSequence || runs[0].Reason != sender.ReasonCompleted {
		t.Errorf("unexpected run %+v", runs[0])
	}
}

type syncQueue struct{}

func (syncQueue) Add(fn func()) { fn() }

type nopEmitter struct{}

func (nopEmitter) Emit(byte, bool) {}

func mustEvent(t *testing.T, code byte) keyseq.KeyEvent {
	t.Helper()
	ev, err := keyseq.NewKeyEventMillis(code, false, false, 0, 1)
	if err != nil {
		t.Fatalf("NewKeyEventMillis: %v", err)
	}
	return ev
}
