// Package sender implements the key sequence scheduler.
//
// A Sender owns at most one playback run at a time. Start launches the run
// on its own goroutine and returns immediately; Stop cancels it cooperatively.
// The run checks for cancellation before every emitted key and wakes up from
// every delay as soon as it is cancelled, so no key is emitted after Stop
// returns except one already in flight.
//
// State changes are reported to observers through a dispatch queue, never on
// the goroutine that caused them.
package sender
