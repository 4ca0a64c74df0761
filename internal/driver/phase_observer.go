package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a unit phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// UnitDone is the last event of a unit; Failed tells whether it
	// produced errors.
	UnitDone
)

// PhaseEvent describes a timing phase boundary of one unit. Elapsed is set
// on PhaseEnd only.
type PhaseEvent struct {
	Unit    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Failed  bool
}

// PhaseObserver receives the phase events of CompileUnit: load, declare,
// compile and emit. It may be called from several goroutines when units
// are compiled in parallel.
type PhaseObserver func(PhaseEvent)
