package koto

import (
	"github.com/sirupsen/logrus"
)

// RuntimeHook is the instrumentation interface of the meta-object core.
// The runtime calls these methods around trap dispatch; tracers,
// coverage tools and debugger frontends hang off it.
//
// Embed BaseRuntimeHook to get no-op implementations of all methods,
// then override only the ones you need.
type RuntimeHook interface {
	// OnTrapEnter is called after a trap resolved to a callable and
	// before it is invoked.
	OnTrapEnter(r *Runtime, proxy *Object, trap string, args []Value)

	// OnTrapExit is called after a trap returned, before the result is
	// validated against the target.
	OnTrapExit(r *Runtime, proxy *Object, trap string, result Value)

	// OnRevoke is called when a proxy is revoked.
	OnRevoke(r *Runtime, proxy *Object)
}

// BaseRuntimeHook provides no-op implementations of all RuntimeHook
// methods.
type BaseRuntimeHook struct{}

func (BaseRuntimeHook) OnTrapEnter(r *Runtime, proxy *Object, trap string, args []Value) {}

func (BaseRuntimeHook) OnTrapExit(r *Runtime, proxy *Object, trap string, result Value) {}

func (BaseRuntimeHook) OnRevoke(r *Runtime, proxy *Object) {}

// LogHook is a RuntimeHook that emits a structured record per trap
// dispatch and revocation.
type LogHook struct {
	log logrus.FieldLogger
}

// NewLogHook creates a LogHook writing to the given logger.
func NewLogHook(log logrus.FieldLogger) *LogHook {
	return &LogHook{log: log}
}

func (h *LogHook) OnTrapEnter(r *Runtime, proxy *Object, trap string, args []Value) {
	h.log.WithFields(logrus.Fields{
		"trap": trap,
		"args": len(args),
	}).Debug("proxy trap enter")
}

func (h *LogHook) OnTrapExit(r *Runtime, proxy *Object, trap string, result Value) {
	h.log.WithFields(logrus.Fields{
		"trap":   trap,
		"result": nilSafe(result).String(),
	}).Debug("proxy trap exit")
}

func (h *LogHook) OnRevoke(r *Runtime, proxy *Object) {
	h.log.Debug("proxy revoked")
}
