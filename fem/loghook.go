package fem

import (
	"log"
)

// A LogHook is a hook that is responsible for recording information from the
// registries.
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks.
type LogHookBase struct {
	*log.Logger
}

// EntityLogger is a hook that prints every registry event it observes.
type EntityLogger struct {
	LogHookBase
}

// NewEntityLogger returns an EntityLogger that writes into the logger.
func NewEntityLogger(logger *log.Logger) *EntityLogger {
	h := new(EntityLogger)
	h.Logger = logger

	return h
}

// Func writes the registry event information into the logger.
func (h *EntityLogger) Func(ctx HookCtx) {
	reg, ok := ctx.Domain.(*Registry)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosRegister:
		e := ctx.Item.(Entity)
		h.Printf("%s, register, entity %s, tag %d",
			reg.Kind(), e.ID(), e.Tag())
	case HookPosRemove:
		e := ctx.Item.(Entity)
		h.Printf("%s, remove, entity %s, tag %d",
			reg.Kind(), e.ID(), ctx.Detail.(int))
	case HookPosRetag:
		e := ctx.Item.(Entity)
		h.Printf("%s, retag, entity %s, tag %d -> %d",
			reg.Kind(), e.ID(), ctx.Detail.(int), e.Tag())
	case HookPosRebase:
		rebase := ctx.Item.(Rebase)
		h.Printf("%s, rebase, start tag %d -> %d",
			reg.Kind(), rebase.PrevStart, rebase.NewStart)
	case HookPosReset:
		h.Printf("%s, reset, %d entities detached",
			reg.Kind(), ctx.Item.(int))
	}
}
