// Package keyseq describes what the sender plays: single timed key events,
// ordered sequences of them, and the random delay ranges used by the
// randomized cycle.
//
// All values are immutable once constructed and are validated at
// construction time, so a value that exists is a value that can be played.
package keyseq
