package sender

import "github.com/keysender/keysender/pkg/keyseq"

// Emitter is the key injection primitive. Emit must not block for long and
// never fails from the sender's point of view.
type Emitter interface {
	Emit(code byte, keyUp bool)
}

// CodeTypeEmitter is implemented by emitters that can inject both virtual
// key codes and scan codes. The sender uses it to honour the per-event code
// type of a TimedSequence.
type CodeTypeEmitter interface {
	Emitter
	EmitCode(code byte, virtual, keyUp bool)
}

func emitEvent(em Emitter, ev keyseq.KeyEvent) {
	if te, ok := em.(CodeTypeEmitter); ok {
		te.EmitCode(ev.Code(), ev.IsVirtual(), ev.IsKeyUp())
		return
	}
	em.Emit(ev.Code(), ev.IsKeyUp())
}
