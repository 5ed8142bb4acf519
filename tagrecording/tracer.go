package tagrecording

import (
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/femcore/fem"
)

// A TagEvent is one row of the tag_events table: a single registry operation
// observed by a Tracer. Replaying the rows in Seq order reproduces the tag
// layout of every kind at any point of the session.
type TagEvent struct {
	Seq           uint64  `json:"seq" femcore_data:"index"`
	Wall          float64 `json:"wall"`
	Kind          string  `json:"kind" femcore_data:"index"`
	Op            string  `json:"op"`
	EntityID      string  `json:"entity_id"`
	Tag           int     `json:"tag"`
	PrevTag       int     `json:"prev_tag"`
	CreationOrder uint64  `json:"creation_order"`
}

// A SessionEntry is one row of the tag_sessions table.
type SessionEntry struct {
	SessionID string  `json:"session_id"`
	StartWall float64 `json:"start_wall"`
	EndWall   float64 `json:"end_wall"`
}

// Operation names stored in the Op column of tag_events.
const (
	OpRegister = "register"
	OpRemove   = "remove"
	OpRetag    = "retag"
	OpRebase   = "rebase"
	OpReset    = "reset"
)

// Tracer is a hook that records every registry event into a DataRecorder.
// For rebase rows, Tag holds the new start and PrevTag the previous start.
// Reset rows carry only the kind; the detached entities can be derived by
// replay.
type Tracer struct {
	backend   DataRecorder
	sessionID string
	startWall float64
	seq       uint64
	closed    bool
}

// NewTracer creates a Tracer writing into dataRecorder and opens a recording
// session.
func NewTracer(dataRecorder DataRecorder) *Tracer {
	dataRecorder.CreateTable("tag_events", TagEvent{})
	dataRecorder.CreateTable("tag_sessions", SessionEntry{})

	t := &Tracer{
		backend:   dataRecorder,
		sessionID: xid.New().String(),
		startWall: wallNow(),
	}

	atexit.Register(func() { t.Terminate() })

	return t
}

// SessionID returns the identity of the recording session.
func (t *Tracer) SessionID() string {
	return t.sessionID
}

// Func records one registry event.
func (t *Tracer) Func(ctx fem.HookCtx) {
	reg, ok := ctx.Domain.(*fem.Registry)
	if !ok {
		return
	}

	t.seq++
	event := TagEvent{
		Seq:  t.seq,
		Wall: wallNow(),
		Kind: string(reg.Kind()),
	}

	switch ctx.Pos {
	case fem.HookPosRegister:
		e := ctx.Item.(fem.Entity)
		event.Op = OpRegister
		event.EntityID = e.ID()
		event.Tag = e.Tag()
		event.CreationOrder = e.CreationOrder()
	case fem.HookPosRemove:
		e := ctx.Item.(fem.Entity)
		event.Op = OpRemove
		event.EntityID = e.ID()
		event.PrevTag = ctx.Detail.(int)
	case fem.HookPosRetag:
		e := ctx.Item.(fem.Entity)
		event.Op = OpRetag
		event.EntityID = e.ID()
		event.Tag = e.Tag()
		event.PrevTag = ctx.Detail.(int)
		event.CreationOrder = e.CreationOrder()
	case fem.HookPosRebase:
		rebase := ctx.Item.(fem.Rebase)
		event.Op = OpRebase
		event.Tag = rebase.NewStart
		event.PrevTag = rebase.PrevStart
	case fem.HookPosReset:
		event.Op = OpReset
	default:
		return
	}

	t.backend.InsertData("tag_events", event)
}

// Terminate closes the recording session and flushes the backend. Calling
// Terminate more than once is safe; only the first call writes the session
// row.
func (t *Tracer) Terminate() {
	if t.closed {
		return
	}
	t.closed = true

	t.backend.InsertData("tag_sessions", SessionEntry{
		SessionID: t.sessionID,
		StartWall: t.startWall,
		EndWall:   wallNow(),
	})
	t.backend.Flush()
}

func wallNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
