// Package config reads and writes the keysender options file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/internal/inject"
	"github.com/keysender/keysender/internal/scheduler"
	"github.com/keysender/keysender/internal/sender"
	"github.com/keysender/keysender/internal/trigger"
	"github.com/keysender/keysender/pkg/keyseq"
)

const (
	// OptionsFileName is the options file inside the config directory.
	OptionsFileName = "options.json"
	// HistoryFileName is the run history database inside the config directory.
	HistoryFileName = "history.db"

	// MaxFileSize caps the options file read by Load.
	MaxFileSize = 256 << 10
)

// Mode selects the playback policy.
type Mode string

const (
	ModeSequence Mode = "sequence"
	ModeRandom   Mode = "random"
)

var (
	// ErrMode is returned for an unknown mode.
	ErrMode = fmt.Errorf("%w: mode must be %q or %q", common.ErrConfig, ModeSequence, ModeRandom)
	// ErrDelayOrder is returned when the key press range does not lie above
	// the key up/down range.
	ErrDelayOrder = fmt.Errorf("%w: delay_key_press must start above delay_key_up_down and end no lower", common.ErrConfig)
	// ErrKeys is returned for key codes outside 1..255.
	ErrKeys = fmt.Errorf("%w: keys must be between 1 and 255", common.ErrConfig)
	// ErrEmptyFile is returned by Load for a zero-length options file.
	ErrEmptyFile = fmt.Errorf("%w: options file is empty", common.ErrConfig)
	// ErrFileTooLarge is returned by Load for options files over MaxFileSize.
	ErrFileTooLarge = fmt.Errorf("%w: options file exceeds %d bytes", common.ErrConfig, MaxFileSize)
)

// Options is the persisted configuration.
type Options struct {
	Mode       Mode              `json:"mode"`
	TriggerKey int               `json:"trigger_key"`
	KeyType    inject.KeyType    `json:"key_type"`
	SinglePass bool              `json:"single_pass"`
	Sequence   keyseq.Sequence   `json:"sequence"`
	Keys       []int             `json:"keys,omitempty"`
	KeyUpDown  keyseq.DelayRange `json:"delay_key_up_down"`
	KeyPress   keyseq.DelayRange `json:"delay_key_press"`
	Channel    string            `json:"channel,omitempty"`
	Autostart  []scheduler.Entry `json:"autostart,omitempty"`
}

// Default returns the options used when no file exists: a randomized cycle
// over the 1, 2 and 3 keys toggled with F11.
func Default() *Options {
	return &Options{
		Mode:       ModeRandom,
		TriggerKey: 0x7A,
		KeyType:    inject.KeyTypeDirectX,
		Keys:       []int{0x02, 0x03, 0x04},
		KeyUpDown:  keyseq.DefaultKeyUpDown,
		KeyPress:   keyseq.DefaultKeyPress,
	}
}

// Dir returns the configuration directory, honoring KEYSENDER_CONFIG_DIR.
func Dir() (string, error) {
	if dir := os.Getenv(common.ConfigDirEnv); dir != "" {
		return filepath.Abs(dir)
	}
	cdr, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cdr, "keysender"), nil
}

// Path returns the options file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, OptionsFileName)
}

// Load reads options from path. Fields missing from the file keep their
// default values. The result is validated.
func Load(fs afero.Fs, path string) (*Options, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case info.Size() == 0:
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	case info.Size() > MaxFileSize:
		return nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	opts := Default()
	if err := json.Unmarshal(b, opts); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, common.ErrConfig, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not exist.
func LoadOrDefault(fs afero.Fs, path string) (*Options, error) {
	opts, err := Load(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return opts, err
}

// Save validates opts and writes them to path, creating the directory.
// The file is replaced atomically.
func Save(fs afero.Fs, path string, opts *Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, append(b, '\n'), 0644); err != nil {
		return err
	}
	return fs.Rename(tmp, path)
}

// Validate checks the options for the selected mode.
func (o *Options) Validate() error {
	if _, err := trigger.NewTriggerKey(o.TriggerKey); err != nil {
		return err
	}
	if _, err := inject.ParseKeyType(string(o.KeyType)); err != nil {
		return err
	}
	for i, e := range o.Autostart {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("autostart entry %d: %w", i, err)
		}
	}
	_, err := o.Policy()
	return err
}

// Policy builds the playback policy for the selected mode.
func (o *Options) Policy() (sender.Policy, error) {
	switch o.Mode {
	case ModeSequence:
		return sender.NewTimedSequence(o.Sequence, o.SinglePass)
	case ModeRandom:
		keys := make([]byte, 0, len(o.Keys))
		for _, k := range o.Keys {
			if k < 1 || k > 255 {
				return nil, fmt.Errorf("%w: got %d", ErrKeys, k)
			}
			keys = append(keys, byte(k))
		}
		p, err := sender.NewRandomizedCycle(keys, o.KeyUpDown, o.KeyPress)
		if err != nil {
			return nil, err
		}
		if o.KeyPress.Low() <= o.KeyUpDown.Low() || o.KeyPress.High() < o.KeyUpDown.High() {
			return nil, fmt.Errorf("%w: %s vs %s", ErrDelayOrder, o.KeyPress, o.KeyUpDown)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: got %q", ErrMode, o.Mode)
	}
}

// Trigger returns the validated trigger key.
func (o *Options) Trigger() (trigger.TriggerKey, error) {
	return trigger.NewTriggerKey(o.TriggerKey)
}

// ChannelName returns the configured channel, or the process default.
func (o *Options) ChannelName() string {
	if o.Channel != "" {
		return o.Channel
	}
	return common.ChannelName()
}
