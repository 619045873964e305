// Package scheduler provides autostart scheduling for the keysender listener.
// It implements a single-goroutine scheduler using a min-heap of ScheduleEvents
// sorted by trigger time, with a 60-second max-sleep-cap to handle NTP steps,
// DST transitions, and system sleep (macOS monotonic clock pause).
//
// The scheduler is a listener-level component that fires events and calls a
// registered OnTrigger callback, which starts, stops or toggles the sender.
// It does not persist state; the heap is rebuilt from the autostart entries
// of the options file every time the listener starts.
package scheduler
