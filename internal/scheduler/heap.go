package scheduler

import (
	"container/heap"
	"time"
)

// pending is a ScheduleEvent plus its insertion order, which breaks ties
// between events due at the same instant so they fire in the order added.
type pending struct {
	ev  ScheduleEvent
	seq uint64
}

// timeline is a min-heap of pending events keyed on (TriggerAt, seq).
type timeline struct {
	items []pending
	seq   uint64
}

func (t *timeline) Len() int { return len(t.items) }

func (t *timeline) Less(i, j int) bool {
	a, b := t.items[i], t.items[j]
	if a.ev.TriggerAt.Equal(b.ev.TriggerAt) {
		return a.seq < b.seq
	}
	return a.ev.TriggerAt.Before(b.ev.TriggerAt)
}

func (t *timeline) Swap(i, j int) { t.items[i], t.items[j] = t.items[j], t.items[i] }

func (t *timeline) Push(x any) { t.items = append(t.items, x.(pending)) }

func (t *timeline) Pop() any {
	last := t.items[len(t.items)-1]
	t.items = t.items[:len(t.items)-1]
	return last
}

func (t *timeline) add(ev ScheduleEvent) {
	t.seq++
	heap.Push(t, pending{ev: ev, seq: t.seq})
}

// next reports the earliest trigger time, if any.
func (t *timeline) next() (time.Time, bool) {
	if len(t.items) == 0 {
		return time.Time{}, false
	}
	return t.items[0].ev.TriggerAt, true
}

// popDue removes and returns the earliest event if it is due at now.
func (t *timeline) popDue(now time.Time) (ScheduleEvent, bool) {
	if len(t.items) == 0 || t.items[0].ev.TriggerAt.After(now) {
		return ScheduleEvent{}, false
	}
	return heap.Pop(t).(pending).ev, true
}

// remove drops every event carrying id and reports whether any matched.
func (t *timeline) remove(id string) bool {
	found := false
	for i := len(t.items) - 1; i >= 0; i-- {
		if t.items[i].ev.ID == id {
			heap.Remove(t, i)
			found = true
		}
	}
	return found
}
