package cmd

const DEF_HISTORY_LIMIT = 20

const DESCRIPTION = `
KeySender replays key sequences into the focused window. A listener
process owns the sender and toggles it whenever the hook process sees
the trigger key, so the hotkey keeps working while keys are injected.
`

const (
	ListenDescription = `The listen command loads the options file, binds the
trigger channel and toggles the sender on every signal. Autostart
entries from the options file are scheduled while it runs.

Example:
        keysender listen

`
	HookDescription = `The hook command watches the keyboard for the trigger
key and sends a toggle signal to the listener each time it is pressed.
With --stdin it reads one keycode per line instead.

Example:
        keysender hook
        keysender hook --stdin < codes.txt

`
	ToggleDescription = `The toggle command sends a single toggle signal to a
running listener, as if the trigger key had been pressed.

Example:
        keysender toggle

`
	PlayDescription = `The play command plays the configured policy in this
process until interrupted. --once plays a key sequence a single time
and --dry-run prints key events instead of injecting them.

Example:
        keysender play --once --dry-run

`
	HistoryDescription = `The history command displays the most recent runs
recorded by the listener.

Example:
        keysender history -n 5

`
)
