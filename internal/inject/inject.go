// Package inject adapts keybd_event to the sender's Emitter interface.
package inject

import (
	"fmt"
	"strings"
	"sync"

	"github.com/micmonay/keybd_event"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/pkg/logger"
)

// KeyType selects how key codes are interpreted.
type KeyType string

const (
	// KeyTypeDirectX sends hardware scan codes.
	KeyTypeDirectX KeyType = "directx"
	// KeyTypeVirtual sends virtual-key codes.
	KeyTypeVirtual KeyType = "virtual"
)

// virtualOffset marks a keybd_event code as a virtual-key code rather than
// a scan code.
const virtualOffset = 0xFFF

// ErrKeyType is returned for an unknown key type name.
var ErrKeyType = fmt.Errorf("%w: key type must be %q or %q", common.ErrConfig, KeyTypeDirectX, KeyTypeVirtual)

// ParseKeyType parses a key type name. The empty string means directx.
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyTypeDirectX:
		return KeyTypeDirectX, nil
	case KeyTypeVirtual:
		return KeyTypeVirtual, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrKeyType, s)
	}
}

// keyboard is the subset of *keybd_event.KeyBonding the emitter drives.
type keyboard interface {
	SetKeys(keys ...int)
	Press() error
	Release() error
}

// Emitter injects single key presses and releases.
type Emitter struct {
	keyType KeyType
	log     logger.Logger

	mu sync.Mutex
	kb keyboard
}

// NewEmitter creates an emitter over the system keyboard. Codes passed to
// Emit are interpreted according to kt.
func NewEmitter(kt KeyType, log logger.Logger) (*Emitter, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("initializing keyboard: %w", err)
	}
	return newEmitter(&kb, kt, log), nil
}

func newEmitter(kb keyboard, kt KeyType, log logger.Logger) *Emitter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if kt == "" {
		kt = KeyTypeDirectX
	}
	return &Emitter{keyType: kt, log: log, kb: kb}
}

// KeyType returns the default code interpretation.
func (e *Emitter) KeyType() KeyType {
	return e.keyType
}

// Emit presses or releases code using the emitter's key type.
func (e *Emitter) Emit(code byte, keyUp bool) {
	e.EmitCode(code, e.keyType == KeyTypeVirtual, keyUp)
}

// EmitCode presses or releases code, treating it as a virtual-key code when
// virtual is set. Failures are logged and otherwise ignored.
func (e *Emitter) EmitCode(code byte, virtual, keyUp bool) {
	key := int(code)
	if virtual {
		key += virtualOffset
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.kb.SetKeys(key)
	var err error
	if keyUp {
		err = e.kb.Release()
	} else {
		err = e.kb.Press()
	}
	if err != nil {
		e.log.Error("inject: key %#x (virtual=%v, up=%v) failed: %v", code, virtual, keyUp, err)
	}
}
