package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeSession, false},
		{LevelError, ScopeSpecialization, true},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeSpecialization, false},
		{LevelDetail, ScopeSpecialization, true},
		{LevelDetail, ScopeOp, false},
		{LevelDebug, ScopeOp, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v", tt.level, tt.scope, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("bad level accepted")
	}
}

func decode(t *testing.T, buf *bytes.Buffer) []jsonEvent {
	t.Helper()
	var out []jsonEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var ev jsonEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		out = append(out, ev)
	}
	return out
}

func TestSpansNestThroughContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithUnit(WithTracer(context.Background(), NewStream(&buf, LevelDetail, FormatNDJSON)), "a.toml")

	ctx, outer := StartSpan(ctx, ScopeSession, "entry fib")
	inner, sp := StartSpan(ctx, ScopeSpecialization, "fib[int64]")
	Note(inner, ScopeOp, "resolve", "dropped at detail level")
	sp.Set("ops", "7").Finish(nil)
	outer.End("")

	evs := decode(t, &buf)
	if len(evs) != 4 {
		t.Fatalf("events = %+v", evs)
	}
	if evs[1].ParentID != evs[0].SpanID || evs[1].Unit != "a.toml" {
		t.Fatalf("child = %+v, parent = %+v", evs[1], evs[0])
	}
	if evs[2].Kind != "end" || evs[2].Detail != "ok" || evs[2].Extra["ops"] != "7" {
		t.Fatalf("end = %+v", evs[2])
	}
}

func TestErrorLevelEmitsFailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithTracer(context.Background(), NewStream(&buf, LevelError, FormatNDJSON))
	_, ok := StartSpan(ctx, ScopePass, "infer f[int64]")
	ok.Finish(nil)
	_, bad := StartSpan(ctx, ScopePass, "infer g[int64]")
	bad.Finish(errors.New("no such attribute"))

	evs := decode(t, &buf)
	if len(evs) != 1 || !evs[0].Failed || evs[0].Name != "infer g[int64]" {
		t.Fatalf("events = %+v", evs)
	}
}

func TestRingKeepsLastEvents(t *testing.T) {
	ring := NewRing(2, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	for _, name := range []string{"a", "b", "c"} {
		Note(ctx, ScopeOp, name, "")
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("snapshot = %+v", events)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "* c") {
		t.Fatalf("dump = %q", buf.String())
	}
}

func TestNewBothFansOut(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	_, sp := StartSpan(WithTracer(context.Background(), tr), ScopePass, "rewrite f")
	sp.End("")
	f, ok := tr.(fanout)
	if !ok || len(f) != 2 {
		t.Fatalf("tracer = %T", tr)
	}
	if n := len(f[1].(*Ring).Snapshot()); n != 2 || strings.Count(buf.String(), "rewrite f") != 2 {
		t.Fatalf("ring kept %d, stream wrote %q", n, buf.String())
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNopSpans(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop {
		t.Fatal("empty context should carry the nop tracer")
	}
	next, sp := StartSpan(ctx, ScopeSession, "x")
	if sp != nil || next != ctx || sp.Set("k", "v").End("") != 0 {
		t.Fatal("nop span recorded something")
	}
}
