package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindNote
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindNote:
		return "note"
	}
	return "unknown"
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	// ScopeSession covers a whole unit or one entry of it.
	ScopeSession Scope = iota + 1
	// ScopePass covers one pipeline pass (infer, rewrite, callconv).
	ScopePass
	// ScopeSpecialization covers one (callable, argument types) compilation.
	ScopeSpecialization
	// ScopeOp covers a single IR operation.
	ScopeOp
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopePass:
		return "pass"
	case ScopeSpecialization:
		return "specialization"
	case ScopeOp:
		return "op"
	}
	return "unknown"
}

// Event is one record handed to a Tracer.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Depth    int
	Unit     string // unit file the event belongs to, if any
	Name     string // e.g. "infer fib[int64]"
	Detail   string
	Failed   bool
	Extra    map[string]string
}
