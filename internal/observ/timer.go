// Package observ measures the phases a unit goes through.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
}

// Timer records named phases by index. A phase observer on another
// goroutine may read it while the unit compiles.
type Timer struct {
	mu     sync.Mutex
	phases []phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase and returns the index End takes.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, phase{name: name, start: t.now()})
	return len(t.phases) - 1
}

// End closes phase idx with an optional note; unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p := t.at(idx); p != nil {
		p.dur = t.now().Sub(p.start)
		p.note = note
	}
}

// Elapsed is the recorded duration of phase idx, zero while it runs.
func (t *Timer) Elapsed(idx int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p := t.at(idx); p != nil {
		return p.dur
	}
	return 0
}

func (t *Timer) at(idx int) *phase {
	if idx < 0 || idx >= len(t.phases) {
		return nil
	}
	return &t.phases[idx]
}

// PhaseReport is one phase in milliseconds.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// Report snapshots every phase and the sum of their durations.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	var total time.Duration
	for _, p := range t.phases {
		total += p.dur
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: millis(p.dur), Note: p.note})
	}
	r.TotalMS = millis(total)
	return r
}

// Summary renders the report as an aligned table.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	row := func(name string, ms float64, note string) {
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", name, ms)
		if note != "" {
			sb.WriteString("  // " + note)
		}
		sb.WriteByte('\n')
	}
	for _, p := range r.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", r.TotalMS, "")
	return sb.String()
}
