// Package logiface adapts any *logiface.Logger[E] — stumpy, zerolog, or
// logrus backed, per the pack's logiface ecosystem — to corio.Logger, so a
// Scheduler or Pool can be handed a production structured logger without
// corio depending on a specific backend.
package logiface

import (
	"github.com/corio-run/corio"
	"github.com/joeycumines/logiface"
)

// Adapter wraps a *logiface.Logger[E] as a corio.Logger. E is whatever
// Event type the chosen backend uses (stumpy's *stumpy.Event, etc.); the
// adapter only needs logiface.Event's common Builder surface, not
// anything backend-specific.
type Adapter[E logiface.Event] struct {
	logger *logiface.Logger[E]
}

// New wraps logger as a corio.Logger.
func New[E logiface.Event](logger *logiface.Logger[E]) *Adapter[E] {
	return &Adapter[E]{logger: logger}
}

var _ corio.Logger = (*Adapter[logiface.Event])(nil)

func (a *Adapter[E]) Debug(msg string, keyvals ...any) { a.log(a.logger.Debug(), msg, keyvals) }
func (a *Adapter[E]) Info(msg string, keyvals ...any)  { a.log(a.logger.Info(), msg, keyvals) }
func (a *Adapter[E]) Warn(msg string, keyvals ...any)  { a.log(a.logger.Warning(), msg, keyvals) }
func (a *Adapter[E]) Error(msg string, keyvals ...any) { a.log(a.logger.Err(), msg, keyvals) }

// log applies keyvals (alternating key, value pairs, per corio.Logger's
// contract) to b as fields before logging msg. An error value is routed
// through Builder.Err so backends that special-case errors (stack traces,
// a dedicated "err" field) get that treatment; everything else goes
// through Builder.Any.
func (a *Adapter[E]) log(b *logiface.Builder[E], msg string, keyvals []any) {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		if err, ok := keyvals[i+1].(error); ok {
			b = b.Err(err)
			continue
		}
		b = b.Any(key, keyvals[i+1])
	}
	b.Log(msg)
}
