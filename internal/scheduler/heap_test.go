package scheduler

import (
	"testing"
	"time"
)

func drain(tl *timeline, now time.Time) []string {
	var ids []string
	for {
		ev, ok := tl.popDue(now)
		if !ok {
			return ids
		}
		ids = append(ids, ev.ID)
	}
}

func TestTimeline_Order(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		events []ScheduleEvent
		now    time.Time
		want   []string
	}{
		{
			name: "empty",
			now:  base,
			want: nil,
		},
		{
			name: "earliest first",
			events: []ScheduleEvent{
				{ID: "c", TriggerAt: base.Add(3 * time.Hour)},
				{ID: "a", TriggerAt: base.Add(time.Hour)},
				{ID: "b", TriggerAt: base.Add(2 * time.Hour)},
			},
			now:  base.Add(3 * time.Hour),
			want: []string{"a", "b", "c"},
		},
		{
			name: "ties keep insertion order",
			events: []ScheduleEvent{
				{ID: "first", TriggerAt: base},
				{ID: "second", TriggerAt: base},
				{ID: "third", TriggerAt: base},
			},
			now:  base,
			want: []string{"first", "second", "third"},
		},
		{
			name: "future events stay queued",
			events: []ScheduleEvent{
				{ID: "due", TriggerAt: base.Add(-time.Minute)},
				{ID: "later", TriggerAt: base.Add(time.Minute)},
			},
			now:  base,
			want: []string{"due"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := &timeline{}
			for _, ev := range tt.events {
				tl.add(ev)
			}
			got := drain(tl, tt.now)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
			if left := len(tt.events) - len(got); tl.Len() != left {
				t.Errorf("expected %d events left, got %d", left, tl.Len())
			}
		})
	}
}

func TestTimeline_Next(t *testing.T) {
	tl := &timeline{}
	if _, ok := tl.next(); ok {
		t.Fatal("empty timeline reported a next time")
	}
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tl.add(ScheduleEvent{ID: "late", TriggerAt: at.Add(time.Hour)})
	tl.add(ScheduleEvent{ID: "early", TriggerAt: at})
	if got, ok := tl.next(); !ok || !got.Equal(at) {
		t.Errorf("next = %v, %v; want %v", got, ok, at)
	}
}

func TestTimeline_Remove(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tl := &timeline{}
	tl.add(ScheduleEvent{ID: "morning", TriggerAt: base})
	tl.add(ScheduleEvent{ID: "noon", TriggerAt: base.Add(4 * time.Hour)})
	tl.add(ScheduleEvent{ID: "noon", TriggerAt: base.Add(28 * time.Hour)})
	tl.add(ScheduleEvent{ID: "evening", TriggerAt: base.Add(10 * time.Hour)})

	if tl.remove("missing") {
		t.Error("remove of unknown id reported success")
	}
	if !tl.remove("noon") {
		t.Fatal("remove of noon failed")
	}
	got := drain(tl, base.Add(48*time.Hour))
	if len(got) != 2 || got[0] != "morning" || got[1] != "evening" {
		t.Errorf("after remove got %v", got)
	}
}
