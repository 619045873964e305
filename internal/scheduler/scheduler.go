package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

// Scheduler manages autostart events on a time-ordered heap.
// It runs a background goroutine that sleeps until the next event's
// trigger time, then calls the onTrigger callback with the event.
type Scheduler struct {
	addChan    chan ScheduleEvent
	removeChan chan string
	ctx        context.Context
}

// New creates and starts a new Scheduler.
// The onTrigger callback is invoked when a scheduled event fires.
// The scheduler goroutine exits when ctx is cancelled.
func New(ctx context.Context, onTrigger func(ScheduleEvent)) *Scheduler {
	s := &Scheduler{
		addChan:    make(chan ScheduleEvent, 64),
		removeChan: make(chan string, 64),
		ctx:        ctx,
	}
	go s.run(onTrigger)
	return s
}

// Add enqueues a new schedule event.
func (s *Scheduler) Add(event ScheduleEvent) {
	select {
	case s.addChan <- event:
	case <-s.ctx.Done():
	}
}

// Remove cancels a scheduled event by ID.
func (s *Scheduler) Remove(id string) {
	select {
	case s.removeChan <- id:
	case <-s.ctx.Done():
	}
}

// run is the core scheduler goroutine implementing the active-object pattern.
// Sleeps are capped at maxSleepCap so wall-clock jumps are noticed.
// For recurring events (CronExpr != ""), after firing it computes the next
// occurrence and re-adds it to the heap automatically.
func (s *Scheduler) run(onTrigger func(ScheduleEvent)) {
	tl := &timeline{}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	rearm := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		at, ok := tl.next()
		if !ok {
			return nil
		}
		timer = time.NewTimer(min(max(time.Until(at), 0), maxSleepCap))
		return timer.C
	}

	timerCh := rearm()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event := <-s.addChan:
			tl.add(event)
			timerCh = rearm()

		case id := <-s.removeChan:
			tl.remove(id)
			timerCh = rearm()

		case <-timerCh:
			for {
				event, ok := tl.popDue(time.Now())
				if !ok {
					break
				}
				onTrigger(event)
				if event.CronExpr == "" {
					continue
				}
				if next, err := nextCronOccurrence(event.CronExpr, time.Now()); err == nil {
					event.TriggerAt = next
					tl.add(event)
				}
			}
			timerCh = rearm()
		}
	}
}

// nextCronOccurrence returns the next time the cron expression fires strictly
// after start. Uses gronx.NextTickAfter with inclRefTime=false.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// hasOccurrenceWithinYear checks if a cron expression has any occurrence
// within 1 year from the given time. Returns false for invalid expressions
// or if no occurrence exists within the 1-year window.
func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}

// ValidateCron rejects malformed expressions and expressions that never
// fire within a year.
func ValidateCron(expr string) error {
	if !gronx.New().IsValid(expr) {
		return fmt.Errorf("%w: %q", ErrInvalidCron, expr)
	}
	if !hasOccurrenceWithinYear(expr, time.Now()) {
		return fmt.Errorf("%w: %q never fires within a year", ErrInvalidCron, expr)
	}
	return nil
}

// Validate checks an autostart entry.
func (e Entry) Validate() error {
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	switch {
	case e.Cron != "":
		return ValidateCron(e.Cron)
	case e.At.IsZero():
		return ErrNoTrigger
	}
	return nil
}

// Plan turns autostart entries into schedule events at listener startup.
//
// Cron entries get their next occurrence after now. One-shot entries whose
// time is still ahead are returned in future; those already past are
// returned in missed and are not fired. Entry i gets the ID "autostart-i".
func Plan(entries []Entry, now time.Time) (future []ScheduleEvent, missed []Entry, err error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, nil, fmt.Errorf("autostart entry %d: %w", i, err)
		}
		action, _ := ParseAction(string(e.Action))
		id := fmt.Sprintf("autostart-%d", i)
		if e.Cron != "" {
			next, err := nextCronOccurrence(e.Cron, now)
			if err != nil {
				return nil, nil, fmt.Errorf("autostart entry %d: %w", i, err)
			}
			future = append(future, ScheduleEvent{
				ID:        id,
				Action:    action,
				TriggerAt: next,
				CronExpr:  e.Cron,
			})
			continue
		}
		if !e.At.After(now) {
			missed = append(missed, e)
			continue
		}
		future = append(future, ScheduleEvent{
			ID:        id,
			Action:    action,
			TriggerAt: e.At,
		})
	}
	return future, missed, nil
}
