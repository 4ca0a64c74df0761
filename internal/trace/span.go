package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seq     atomic.Uint64
	spanIDs atomic.Uint64
)

// Span is an open interval of work. A nil *Span is valid and records
// nothing, so callers never check whether tracing is on.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	depth  int
	scope  Scope
	unit   string
	name   string
	start  time.Time
	extra  map[string]string
	// quiet spans emit only when they fail (LevelError).
	quiet bool
}

// StartSpan opens a span under the innermost span of ctx. When the
// tracer ignores scope, ctx comes back unchanged with a nil span.
func StartSpan(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	t := FromContext(ctx)
	if !t.Level().ShouldEmit(scope) {
		return ctx, nil
	}
	s := &Span{
		t:     t,
		id:    spanIDs.Add(1),
		scope: scope,
		unit:  unitFrom(ctx),
		name:  name,
		start: time.Now(),
		quiet: t.Level() == LevelError,
	}
	if p := SpanFrom(ctx); p != nil {
		s.parent = p.id
		s.depth = p.depth + 1
	}
	if !s.quiet {
		s.emit(KindSpanBegin, s.start, "", false)
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

// Set attaches a key to the end event.
func (s *Span) Set(key, value string) *Span {
	if s == nil {
		return nil
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	return s.end(detail, false)
}

// Finish closes the span with "ok" or the error text.
func (s *Span) Finish(err error) time.Duration {
	if err != nil {
		return s.end(err.Error(), true)
	}
	return s.end("ok", false)
}

func (s *Span) end(detail string, failed bool) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	if !s.quiet || failed {
		s.emit(KindSpanEnd, now, detail, failed)
	}
	return now.Sub(s.start)
}

func (s *Span) emit(kind Kind, at time.Time, detail string, failed bool) {
	ev := &Event{
		Time:     at,
		Seq:      seq.Add(1),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Depth:    s.depth,
		Unit:     s.unit,
		Name:     s.name,
		Detail:   detail,
		Failed:   failed,
	}
	if kind == KindSpanEnd {
		ev.Extra = s.extra
	}
	s.t.Emit(ev)
}

// Note emits an instant event under the innermost span of ctx.
func Note(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Level().ShouldEmit(scope) || t.Level() == LevelError {
		return
	}
	ev := &Event{
		Time:   time.Now(),
		Seq:    seq.Add(1),
		Kind:   KindNote,
		Scope:  scope,
		Unit:   unitFrom(ctx),
		Name:   name,
		Detail: detail,
	}
	if p := SpanFrom(ctx); p != nil {
		ev.ParentID = p.id
		ev.Depth = p.depth + 1
	}
	t.Emit(ev)
}
